package httpx

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("isbn_length", validateISBNLength)
	return v
}

// validateISBNLength accepts 10 or 13 characters once spaces and hyphens are
// removed. The checksum is left to the resolver.
func validateISBNLength(fl validator.FieldLevel) bool {
	n := len(CleanISBN(fl.Field().String()))
	return n == 10 || n == 13
}

// CleanISBN strips whitespace and hyphens.
func CleanISBN(s string) string {
	s = strings.Join(strings.Fields(s), "")
	return strings.ReplaceAll(s, "-", "")
}

// ValidateStruct checks s against its validate tags and returns one detail
// per failing field, keyed by the field's json name.
func ValidateStruct(s any) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "isbn_length":
			message = fmt.Sprintf("%s must be 10 or 13 digits long", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, ErrorDetail{Field: field, Message: message})
	}
	return details
}
