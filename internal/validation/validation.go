// Package validation holds the input shape checks for names, emails, phone numbers and
// passwords. The core only consumes pass/fail answers from it.
package validation

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// PhoneRegion is the region local phone numbers are parsed against.
const PhoneRegion = "NG"

var localPhone = regexp.MustCompile(`^0[789][01]\d{8}$`)

// Validator wraps go-playground/validator with the project's custom tags.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the "ngphone" tag registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("ngphone", validatePhone)
	return &Validator{validate: v}
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if !localPhone.MatchString(phone) {
		return false
	}
	_, err := phonenumbers.Parse(phone, PhoneRegion)
	return err == nil
}

// FirstInvalid validates s and returns the Go field name of the first failing field, or ""
// when s is valid. Fields are checked in declaration order.
func (v *Validator) FirstInvalid(s interface{}) (string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return "", nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Field(), nil
	}
	return "", err
}
