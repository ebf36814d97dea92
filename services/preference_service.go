package services

import (
	"context"
	"errors"

	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/utils"
)

// Consents marked required must be true.
type Consents struct {
	TOS     bool `json:"tos" validate:"required"`
	Privacy bool `json:"privacy" validate:"required"`
	Offers  bool `json:"offers"`
}

type PreferenceInput struct {
	Allergens   []string     `json:"allergens"`
	PaymentType string       `json:"paymentType" validate:"required,oneof=cash card"`
	CardDetails *CardDetails `json:"cardDetails" validate:"required_if=PaymentType card"`
	Consents    Consents     `json:"consents"`
}

// PreferenceService keeps the consents and payment method that order
// creation depends on.
type PreferenceService struct {
	store     database.PreferenceStore
	tokenizer *CardTokenizer
}

func NewPreferenceService(store database.PreferenceStore, tokenizer *CardTokenizer) *PreferenceService {
	return &PreferenceService{store: store, tokenizer: tokenizer}
}

func (s *PreferenceService) Get(ctx context.Context, actor models.Actor) (*models.Preference, error) {
	if !actor.Is(models.RoleCustomer) {
		return nil, newError(KindForbidden, "only customers have preferences")
	}
	pref, err := s.store.FindPreference(ctx, actor.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(KindNotFound, "no preferences recorded")
	}
	if err != nil {
		return nil, internalError("failed to load preferences", err)
	}
	return pref, nil
}

// Save replaces the customer's preferences. Switching to card requires card
// details; switching back to cash drops any stored card.
func (s *PreferenceService) Save(ctx context.Context, actor models.Actor, input PreferenceInput) (*models.Preference, error) {
	if !actor.Is(models.RoleCustomer) {
		return nil, newError(KindForbidden, "only customers have preferences")
	}
	if input.CardDetails != nil {
		card := *input.CardDetails
		card.CardNumber = normalizeCardNumber(card.CardNumber)
		input.CardDetails = &card
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	pref := &models.Preference{
		CustomerID:     actor.ID,
		Allergens:      input.Allergens,
		ConsentTOS:     input.Consents.TOS,
		ConsentPrivacy: input.Consents.Privacy,
		ConsentOffers:  input.Consents.Offers,
	}
	if pref.Allergens == nil {
		pref.Allergens = []string{}
	}

	pref.PaymentType = models.PaymentType(input.PaymentType)
	if pref.PaymentType == models.PaymentCard {
		token, masked, err := s.tokenizer.Tokenize(*input.CardDetails)
		if err != nil {
			return nil, err
		}
		pref.CardToken = token
		pref.CardHolder = input.CardDetails.CardHolder
		pref.CardNumber = masked
		pref.CardExpiry = input.CardDetails.ExpiryDate
	}

	if err := s.store.SavePreference(ctx, pref); err != nil {
		return nil, internalError("failed to save preferences", err)
	}
	utils.InfoLogger.Infof("Preferences saved for customer %s (payment: %s)", actor.ID, pref.PaymentType)
	return pref, nil
}
