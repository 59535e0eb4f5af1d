package school

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrPostcodeNotNumeric = errors.New("postcode must be a number")
	ErrPostcodeOutOfRange = errors.New("postcode is not a valid australian postcode")
)

type postcodeRange struct {
	min, max int
}

// postcodeRanges lists the inclusive australian postcode ranges accepted for a Location.
var postcodeRanges = []postcodeRange{
	{2000, 2599}, // NSW
	{2600, 2618}, // ACT
	{2619, 2899}, // NSW
	{2900, 2920}, // ACT
	{2921, 2999}, // NSW
	{3000, 3999}, // VIC
	{4000, 4999}, // QLD
	{5000, 5799}, // SA
	{6000, 6797}, // WA
	{7000, 7799}, // TAS
	{800, 899},   // NT
}

// ValidatePostcode checks that value, once trimmed, is a number within one of the australian postcode ranges.
func ValidatePostcode(value string) error {
	code, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return ErrPostcodeNotNumeric
	}
	for _, r := range postcodeRanges {
		if code >= r.min && code <= r.max {
			return nil
		}
	}
	return ErrPostcodeOutOfRange
}
