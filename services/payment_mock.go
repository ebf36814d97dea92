package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CardTokenizer stands in for a payment gateway: it checks card data and
// turns it into an opaque token. Nothing is charged.
type CardTokenizer struct {
	Cost int
}

func NewCardTokenizer() *CardTokenizer {
	return &CardTokenizer{Cost: bcrypt.DefaultCost}
}

type CardDetails struct {
	CardHolder string `json:"cardHolder" validate:"required,notblank"`
	CardNumber string `json:"cardNumber" validate:"required,number,min=12,max=19"`
	ExpiryDate string `json:"expiryDate" validate:"required,datetime=01/06"`
	CVV        string `json:"cvv" validate:"required,number,min=3,max=4"`
}

// Tokenize validates the card and returns the token plus the masked number.
func (t *CardTokenizer) Tokenize(card CardDetails) (token string, masked string, err error) {
	card.CardNumber = normalizeCardNumber(card.CardNumber)
	if err := validateInput(card); err != nil {
		return "", "", err
	}
	number := card.CardNumber

	// bcrypt only reads 72 bytes, so hash the card data down first.
	sum := sha256.Sum256([]byte(number + "|" + card.ExpiryDate + "|" + card.CVV))
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(sum[:])), t.Cost)
	if err != nil {
		return "", "", internalError("failed to tokenize card", err)
	}
	return "tok_" + string(hash), MaskCardNumber(number), nil
}

// MaskCardNumber keeps only the last four digits.
func MaskCardNumber(number string) string {
	number = normalizeCardNumber(number)
	if len(number) <= 4 {
		return number
	}
	return "**** **** **** " + number[len(number)-4:]
}

func normalizeCardNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}
