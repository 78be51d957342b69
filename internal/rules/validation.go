package rules

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	postalCodeRe = regexp.MustCompile(`^\d{4}-\d{3}$`)
	emailRe      = regexp.MustCompile(`^[^@\s;]+@[^@\s;]+\.[A-Za-z]{2,}$`)
)

// ValidPostalCode checks the Portuguese ####-### postal code format.
func ValidPostalCode(code string) bool {
	return postalCodeRe.MatchString(code)
}

// ValidNIF checks a Portuguese tax number: nine digits where the last is a
// mod-11 check digit over the first eight (weights 9 down to 2; a check
// value of 10 or 11 maps to 0).
func ValidNIF(nif string) bool {
	if len(nif) != 9 {
		return false
	}
	sum := 0
	for i := 0; i < 8; i++ {
		d := nif[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * (9 - i)
	}
	last := nif[8]
	if last < '0' || last > '9' {
		return false
	}
	check := 11 - sum%11
	if check >= 10 {
		check = 0
	}
	return check == int(last-'0')
}

// ValidEmailList accepts one or more e-mail addresses separated by
// semicolons, the format used for the household contact field.
func ValidEmailList(list string) bool {
	if strings.TrimSpace(list) == "" {
		return false
	}
	for _, part := range strings.Split(list, ";") {
		if !emailRe.MatchString(strings.TrimSpace(part)) {
			return false
		}
	}
	return true
}

// RegisterValidations adds the club's custom struct-tag validators. Services
// share a single validator instance built through NewValidator.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("pt_postal", func(fl validator.FieldLevel) bool {
		return ValidPostalCode(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("nif", func(fl validator.FieldLevel) bool {
		return ValidNIF(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("email_list", func(fl validator.FieldLevel) bool {
		return ValidEmailList(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("membership_tier", func(fl validator.FieldLevel) bool {
		return ValidMembershipTier(MembershipTier(fl.Field().String()))
	})
}

// NewValidator returns a validator with the custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = RegisterValidations(v)
	return v
}
