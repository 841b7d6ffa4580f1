package validators

import (
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-ledger/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type currencyPayload struct {
	Code          string `json:"code" validate:"required,iso4217"`
	Name          string `json:"name" validate:"required,max=64"`
	DecimalPlaces int    `json:"decimal_places" validate:"scale"`
}

func TestStructAcceptsValidPayload(t *testing.T) {
	require.NoError(t, Struct(currencyPayload{Code: "SAR", Name: "Saudi Riyal", DecimalPlaces: 2}))
	require.NoError(t, Struct(currencyPayload{Code: "BHD", Name: "Bahraini Dinar", DecimalPlaces: 3}))
}

func TestStructReportsFieldDetails(t *testing.T) {
	err := Struct(currencyPayload{Code: "usd", Name: "", DecimalPlaces: 9})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a three-letter uppercase currency code", details["code"])
	assert.Equal(t, "is required", details["name"])
	assert.Contains(t, details["decimal_places"], "between 0 and 8")
}

type scalePatch struct {
	DecimalPlaces *int `json:"decimal_places" validate:"omitempty,scale"`
}

func TestCustomTagsAreRegistered(t *testing.T) {
	v := newValidator()
	assert.Error(t, v.Var("usd", "iso4217"))
	assert.NoError(t, v.Var("USD", "iso4217"))
	assert.Error(t, v.Var(9, "scale"))
	assert.NoError(t, v.Var(0, "scale"))

	nine, two := 9, 2
	assert.NoError(t, Struct(scalePatch{}))
	assert.NoError(t, Struct(scalePatch{DecimalPlaces: &two}))
	assert.Error(t, Struct(scalePatch{DecimalPlaces: &nine}))
}

func TestMustRegisterPanicsOnRejectedTag(t *testing.T) {
	assert.Panics(t, func() {
		mustRegister(validator.New(), "", func(validator.FieldLevel) bool { return true })
	})
}

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, IsCurrencyCode("USD"))
	for _, code := range []string{"", "US", "USDT", "usd", "U1D", "ÜSD"} {
		assert.False(t, IsCurrencyCode(code), code)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abc  ", 0))
	assert.Equal(t, "ab", SanitizeString(" abc", 2))
}
