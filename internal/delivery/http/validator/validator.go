// Package validator adapts go-playground/validator to echo's Validator interface.
package validator

import (
	domainerrors "medsync/internal/domain/errors"

	playground "github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validate instance.
type Validator struct {
	validate *playground.Validate
}

// New creates an echo-compatible request validator.
func New() *Validator {
	return &Validator{
		validate: playground.New(playground.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
