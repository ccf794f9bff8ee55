// Package validator validates inventory inputs at the service boundary with
// go-playground/validator and the custom tags registered here.
package validator

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "invtrack/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Get returns the shared validator with the custom tags registered.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("decimal", validateDecimal)
		_ = validate.RegisterValidation("market_ref", validateMarketRef)
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s and converts the first failure into an AppError. A field
// tagged "decimal" that is present but not a number maps to
// ErrInvalidNumericInput; everything else is ErrInvalidInput.
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "decimal":
		return apperrors.Wrap(apperrors.ErrInvalidNumericInput, fmt.Errorf("%s: %q is not a number", fe.Field(), fe.Value()))
	case "required":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fe.Field()+" is required")
	case "market_ref":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fe.Field()+" must be a market listing link or item name")
	case "datetime":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s must be a date formatted as %s", fe.Field(), fe.Param()))
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
}

func validateDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// validateMarketRef accepts an http(s) URL with a host, or a bare item name.
func validateMarketRef(fl validator.FieldLevel) bool {
	ref := strings.TrimSpace(fl.Field().String())
	if ref == "" {
		return false
	}
	if !strings.Contains(ref, "://") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
