package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("flag_key", validateFlagKey)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Flag keys are lowercase snake_case identifiers so they survive env
// vars, URLs and redis keys unescaped.
func validateFlagKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" || len(key) > 128 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
