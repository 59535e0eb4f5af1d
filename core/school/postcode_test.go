package school

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePostcode(t *testing.T) {
	tests := []struct {
		value   string
		wantErr error
	}{
		// NT
		{"799", ErrPostcodeOutOfRange},
		{"800", nil},
		{"0800", nil},
		{"899", nil},
		{"900", ErrPostcodeOutOfRange},
		{"1000", ErrPostcodeOutOfRange},
		{"1999", ErrPostcodeOutOfRange},
		// NSW / ACT
		{"2000", nil},
		{"2599", nil},
		{"2600", nil},
		{"2618", nil},
		{"2619", nil},
		{"2899", nil},
		{"2900", nil},
		{"2920", nil},
		{"2921", nil},
		{"2999", nil},
		// VIC
		{"3000", nil},
		{"3999", nil},
		// QLD
		{"4000", nil},
		{"4999", nil},
		// SA
		{"5000", nil},
		{"5799", nil},
		{"5800", ErrPostcodeOutOfRange},
		{"5999", ErrPostcodeOutOfRange},
		// WA
		{"6000", nil},
		{"6797", nil},
		{"6798", ErrPostcodeOutOfRange},
		{"6999", ErrPostcodeOutOfRange},
		// TAS
		{"7000", nil},
		{"7799", nil},
		{"7800", ErrPostcodeOutOfRange},
		{"8000", ErrPostcodeOutOfRange},
		{"9999", ErrPostcodeOutOfRange},
		{"0", ErrPostcodeOutOfRange},
		{"-2000", ErrPostcodeOutOfRange},
		// whitespace is trimmed
		{" 2000 ", nil},
		{"\t3000\n", nil},
		// not numeric
		{"", ErrPostcodeNotNumeric},
		{"   ", ErrPostcodeNotNumeric},
		{"abcd", ErrPostcodeNotNumeric},
		{"20OO", ErrPostcodeNotNumeric},
		{"2000.5", ErrPostcodeNotNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidatePostcode(tt.value))
		})
	}
}
