package store

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/airdropbot/airdrop"
)

// NewValidator returns a validator that also understands the airdrop_url tag.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("airdrop_url", func(fl validator.FieldLevel) bool {
		return airdrop.IsValidURL(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register airdrop_url: %w", err)
	}
	return v, nil
}
