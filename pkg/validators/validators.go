package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-ledger/pkg/errors"
	"github.com/angelmondragon/storefront-ledger/pkg/money"
	"github.com/go-playground/validator/v10"
)

var iso4217Re = regexp.MustCompile(`^[A-Z]{3}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	mustRegister(v, "iso4217", func(fl validator.FieldLevel) bool {
		return IsCurrencyCode(fl.Field().String())
	})
	mustRegister(v, "scale", func(fl validator.FieldLevel) bool {
		return money.ValidScale(int(fl.Field().Int()))
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validators: register %q: %v", tag, err))
	}
}

// IsCurrencyCode reports whether code is three uppercase ASCII letters.
func IsCurrencyCode(code string) bool {
	return iso4217Re.MatchString(code)
}

// Struct validates v against its `validate` tags and maps failures to a
// CodeValidation error keyed by json field name.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "iso4217":
		return "must be a three-letter uppercase currency code"
	case "scale":
		return fmt.Sprintf("must be between 0 and %d", money.MaxScale)
	case "url":
		return "must be a valid url"
	}
	return "is invalid"
}

// SanitizeString trims input and truncates it to maxLen bytes when maxLen > 0.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
