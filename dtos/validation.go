package dtos

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"kd-resto/models"
)

// RegisterValidations adds the custom binding tags used by the request types.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case models.PaymentMethodCash, models.PaymentMethodGCash, models.PaymentMethodPayMaya:
			return true
		}
		return false
	})
}
