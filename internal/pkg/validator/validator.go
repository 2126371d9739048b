// Package validator provides a thin wrapper around the go-playground/validator library,
// enabling declarative struct validation with standardized error formatting.
//
// Besides the stock tags it registers:
//
//   - solana_pubkey: the field is a base58 encoded 32 byte public key
//   - update_kind:   the field names an update kind ("account", "block", ...)
//
// The package is initialized on import and safe to use directly.
package validator

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	gvalidator "github.com/go-playground/validator/v10"

	"github.com/gabapcia/slotstream/internal/update"
)

// ErrValidationFailed is returned as the first error in a multi-error chain when validation fails.
var ErrValidationFailed = errors.New("struct validation failed")

var validator *gvalidator.Validate

// Example: "'Program': value 'xyz' does not meet the requirements for the 'solana_pubkey' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())

	mustRegister("solana_pubkey", isSolanaPubkey)
	mustRegister("update_kind", isUpdateKind)
}

func mustRegister(tag string, fn gvalidator.Func) {
	if err := validator.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: register %q: %v", tag, err))
	}
}

// isSolanaPubkey accepts string fields holding a base58 public key. Empty
// strings pass so the tag composes with omitempty and required.
func isSolanaPubkey(fl gvalidator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

func isUpdateKind(fl gvalidator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := update.ParseKind(s)
	return err == nil
}

// formatError transforms a raw validator error into a human-readable multi-error chain
// rooted at ErrValidationFailed. Other errors are returned unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks if the given struct satisfies its validation tags.
//
//	if err := validator.Validate(cfg); errors.Is(err, validator.ErrValidationFailed) {
//	    // Handle validation failure
//	}
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
