package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Name   string          `json:"name" validate:"required,max=10"`
	Email  string          `json:"email" validate:"omitempty,email"`
	Locale string          `json:"locale" validate:"omitempty,locale"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

func TestValidateStructured(t *testing.T) {
	v := New()

	assert.Nil(t, v.ValidateStructured(&sampleRequest{Name: "ok", Locale: "zh-TW", Amount: decimal.NewFromInt(1)}))

	errs := v.ValidateStructured(&sampleRequest{
		Name:   "much too long a name",
		Email:  "not-an-email",
		Locale: "fr-FR",
		Amount: decimal.Zero,
	})
	assert.Equal(t, "Must be at most 10 characters", errs["name"])
	assert.Equal(t, "Invalid email address", errs["email"])
	assert.Equal(t, "Unsupported locale", errs["locale"])
	assert.Contains(t, errs, "amount")

	errs = v.ValidateStructured(&sampleRequest{Amount: decimal.NewFromInt(1)})
	assert.Equal(t, "This field is required", errs["name"])
}
