package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
)

// Payload is a decoded JSON request body
type Payload map[string]interface{}

// Has reports whether key was sent, even with a null value
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// stringValue renders scalars as text; null and nested values become ""
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	}
	return ""
}

// floatValue reads a number or numeric string, falling back to def when the
// value is absent or blank.
func floatValue(v interface{}, def float64) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return def, true
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		if strings.TrimSpace(val) == "" {
			return def, true
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

func listValue(v interface{}) []interface{} {
	list, _ := v.([]interface{})
	return list
}

func fieldError(field string, messages ...string) *models.ValidationError {
	verr := models.NewValidationError()
	verr.Add(field, messages...)
	return verr
}

// withHint appends a value hint to every field so clients can point at the
// offending row.
func withHint(verr *models.ValidationError, label, value string) *models.ValidationError {
	for field := range verr.Fields {
		verr.Add(field, fmt.Sprintf("%s=%q", label, value))
	}
	return verr
}

const msgInvalidNumber = "A valid number is required."
const msgExpectedObject = "Invalid data. Expected a dictionary."
