package handlers

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance; validator caches struct
// metadata, so one instance serves all handlers.
var validate = validator.New()

// validateStruct runs struct tag validation on a request body.
func validateStruct(s interface{}) error {
	return validate.Struct(s)
}
