package models

type Restaurant struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID string `gorm:"type:varchar(36);not null;index" json:"owner"`
	Name    string `gorm:"type:varchar(255)" json:"name"`
	Address string `gorm:"type:varchar(255)" json:"address"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	VAT     string `gorm:"type:varchar(50)" json:"vat"`
}
