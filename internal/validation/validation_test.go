package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlank(t *testing.T) {
	testCases := []struct {
		name     string
		value    interface{}
		expected bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"text", "soup", false},
		{"false", false, true},
		{"true", true, false},
		{"zero", float64(0), true},
		{"number", float64(2), false},
		{"empty list", []interface{}{}, true},
		{"list", []interface{}{"a"}, false},
		{"empty object", map[string]interface{}{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsBlank(tc.value))
		})
	}
}

func TestToInt(t *testing.T) {
	testCases := []struct {
		name     string
		value    interface{}
		expected int
		ok       bool
	}{
		{"float truncates", 3.9, 3, true},
		{"numeric string", " 12 ", 12, true},
		{"true", true, 1, true},
		{"word", "ten", 0, false},
		{"decimal string", "1.5", 0, false},
		{"nan", math.NaN(), 0, false},
		{"list", []interface{}{1}, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, ok := ToInt(tc.value)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, n)
		})
	}
}

func TestIsDigit(t *testing.T) {
	assert.True(t, IsDigit(nil))
	assert.True(t, IsDigit("4"))
	assert.False(t, IsDigit("four"))
}

type sample struct {
	Title    string  `json:"title" validate:"required,max=5"`
	Password string  `json:"password" validate:"omitempty,min=8"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Parent   *int    `json:"parent" validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	parent := 1
	assert.Nil(t, ValidateStruct(&sample{Title: "Soup", Amount: 1, Parent: &parent}, ""))

	verr := ValidateStruct(&sample{Title: "", Password: "short", Email: "nope", Amount: 0}, "groups[0].")
	require.NotNil(t, verr)

	assert.Equal(t, []string{"This field cannot be blank."}, verr.Fields["groups[0].title"])
	assert.Equal(t, []string{"Ensure this value has at least 8 characters (it has 5)."}, verr.Fields["groups[0].password"])
	assert.Equal(t, []string{"Enter a valid email address."}, verr.Fields["groups[0].email"])
	assert.Equal(t, []string{"Ensure this value is greater than 0."}, verr.Fields["groups[0].amount"])
	assert.Equal(t, []string{"This field cannot be null."}, verr.Fields["groups[0].parent"])
}

func TestValidateStructMaxLength(t *testing.T) {
	parent := 1
	verr := ValidateStruct(&sample{Title: "Risotto", Amount: 1, Parent: &parent}, "")

	require.NotNil(t, verr)
	assert.Equal(t, []string{"Ensure this value has at most 5 characters (it has 7)."}, verr.Fields["title"])
}
