package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ticketemail", func(fl validator.FieldLevel) bool {
		return validEmail(fl.Field().String())
	})
	return v
}

// validEmail requires an "@" and a "." in the part after the last "@".
func validEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}

// fieldMessages maps validator tags to the messages returned to clients.
var fieldMessages = map[string]string{
	"required":    "Field cannot be empty",
	"ticketemail": "Invalid email address",
	"min":         "Quantity must be between 1 and 10",
	"max":         "Quantity must be between 1 and 10",
	"oneof":       "Must be one of: pending, receipt_uploaded",
}

// validateStruct runs the struct tags of s and converts failures into a
// *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		if (fe.Tag() == "max" || fe.Tag() == "min") && fe.Field() != "quantity" {
			msg = "Value is too long"
		}
		out.add(fe.Field(), msg)
	}
	return out
}
