// Package validator wraps go-playground/validator behind the payload
// validation contract used by the CRUD services: an untrusted JSON object
// goes in, a normalized copy with unknown fields stripped comes out, and
// failures carry per-field paths and messages.
package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Resolve field paths to json names so error paths match the wire shape.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("password_strength", validatePasswordStrength); err != nil {
		panic(fmt.Sprintf("register password_strength: %v", err))
	}

	return &Validator{validate: v}
}

// Validate checks a typed value directly (used for request structs that are
// decoded by the HTTP layer rather than arriving as raw payload maps).
func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

func validatePasswordStrength(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasDigit := regexp.MustCompile(`\d`).MatchString(password)

	return hasUpper && hasLower && hasDigit
}
