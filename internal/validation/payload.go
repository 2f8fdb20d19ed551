package validation

import (
	"math"
	"strconv"
	"strings"
)

// Messages used by raw payload rules
const (
	MsgRequired = "This item is required."
	MsgNumber   = "This item must be a number."
)

// IsBlank reports whether a decoded JSON value counts as missing: null,
// false, zero, an empty string or an empty collection.
func IsBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0
	case int:
		return val == 0
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	return false
}

// ToInt converts a decoded JSON value to an integer the way a lenient form
// would: numbers truncate, strings must hold a base-10 integer.
func ToInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(val), true
	case int:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// IsDigit reports whether v can be read as an integer. Missing values pass.
func IsDigit(v interface{}) bool {
	if v == nil {
		return true
	}
	_, ok := ToInt(v)
	return ok
}
