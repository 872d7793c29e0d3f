// Package validator wraps go-playground/validator for request bodies.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	v.registerCustomValidations()
	return v
}

// ValidateStructured returns a map of json field name -> message, or nil
// when the struct is valid.
func (v *Validator) ValidateStructured(i interface{}) map[string]string {
	errs := make(map[string]string)
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				errs[e.Field()] = message(e)
			}
		} else {
			errs["_global"] = err.Error()
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email address"
	case "fqdn":
		return "Invalid domain name"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", e.Param())
	case "uuid4", "uuid":
		return "Invalid UUID"
	case "locale":
		return "Unsupported locale"
	default:
		return fmt.Sprintf("failed validation on '%s'", e.Tag())
	}
}

// SupportedLocales are the interface languages members can pick.
var SupportedLocales = []string{"zh-TW", "en-US"}

func (v *Validator) registerCustomValidations() {
	// report json names so messages line up with request bodies
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := val.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.validate.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
		locale := fl.Field().String()
		for _, l := range SupportedLocales {
			if l == locale {
				return true
			}
		}
		return false
	})
}
