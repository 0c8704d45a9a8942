package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs go-playground validation against the `validate` tags on
// a request DTO and returns the first violation, if any.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
