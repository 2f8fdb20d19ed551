// Package validation wraps go-playground/validator with a shared instance
// that reports errors by JSON field name in the API's message format.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})

	return validate
}

// ValidateStruct validates s and returns nil or a ValidationError whose keys
// are the JSON field names, each prefixed with prefix.
func ValidateStruct(s interface{}, prefix string) *models.ValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	verr := models.NewValidationError()
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(prefix+"non_field_errors", err.Error())
		return verr
	}

	for _, fe := range fieldErrs {
		field := prefix + fe.Field()
		// keep only the first failing rule per field
		if verr.Has(field) {
			continue
		}
		verr.Add(field, translateError(fe))
	}
	return verr
}

var errorMessageTemplates = map[string]string{
	"email": "Enter a valid email address.",
	"oneof": "Select a valid choice.",
}

var errorMessageWithParam = map[string]string{
	"gte": "Ensure this value is greater than or equal to %s.",
	"gt":  "Ensure this value is greater than %s.",
	"lte": "Ensure this value is less than or equal to %s.",
	"lt":  "Ensure this value is less than %s.",
}

func translateError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return template
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, param)
	}

	switch tag {
	case "required":
		if fe.Kind() == reflect.Ptr {
			return "This field cannot be null."
		}
		return "This field cannot be blank."
	case "max", "min":
		return translateMinMax(fe, tag, param)
	default:
		return fmt.Sprintf("%s failed %s validation.", fe.Field(), tag)
	}
}

func translateMinMax(fe validator.FieldError, tag, param string) string {
	if fe.Kind() == reflect.String {
		length := utf8.RuneCountInString(fmt.Sprint(fe.Value()))
		if tag == "max" {
			return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", param, length)
		}
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", param, length)
	}
	if tag == "max" {
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", param)
	}
	return fmt.Sprintf("Ensure this value is greater than or equal to %s.", param)
}
