package models

type PaymentType string

const (
	PaymentCash PaymentType = "cash"
	PaymentCard PaymentType = "card"
)

// Preference holds a customer's consents and payment method. Card data is
// only kept as a gateway token plus a masked number.
type Preference struct {
	ID             uint        `gorm:"primaryKey" json:"-"`
	CustomerID     string      `gorm:"type:varchar(36);not null;uniqueIndex" json:"customer"`
	Allergens      []string    `gorm:"serializer:json" json:"allergens"`
	PaymentType    PaymentType `gorm:"type:varchar(10);not null;default:'cash'" json:"paymentType"`
	CardToken      string      `gorm:"type:varchar(255)" json:"-"`
	CardHolder     string      `gorm:"type:varchar(255)" json:"cardHolder,omitempty"`
	CardNumber     string      `gorm:"type:varchar(32)" json:"cardNumber,omitempty"`
	CardExpiry     string      `gorm:"type:varchar(10)" json:"expiryDate,omitempty"`
	ConsentTOS     bool        `gorm:"not null" json:"tos"`
	ConsentPrivacy bool        `gorm:"not null" json:"privacy"`
	ConsentOffers  bool        `json:"offers"`
}

// HasPaymentMethod reports whether the customer can be billed: cash always
// qualifies, a card only once it has been tokenized.
func (p *Preference) HasPaymentMethod() bool {
	switch p.PaymentType {
	case PaymentCash:
		return true
	case PaymentCard:
		return p.CardToken != ""
	}
	return false
}

func (p *Preference) HasRequiredConsents() bool {
	return p.ConsentTOS && p.ConsentPrivacy
}
