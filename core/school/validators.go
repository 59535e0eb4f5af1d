package school

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/simplesis/simplesis/core"
)

var (
	postcodeTag  = "postcode"
	postcodeText = "enter a valid australian postcode"

	auStateTag  = "auState"
	auStateText = "enter one of NSW, QLD, SA, TAS, VIC, WA, ACT or NT"
)

// InitValidators registers the location validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(postcodeTag, postcodeValidation)
	core.RegisterCustomTranslation(validate, translator, postcodeTag, postcodeText)

	_ = validate.RegisterValidation(auStateTag, auStateValidation)
	core.RegisterCustomTranslation(validate, translator, auStateTag, auStateText)
}

func postcodeValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return ValidatePostcode(str) == nil
	}
	return false
}

func auStateValidation(fl validator.FieldLevel) bool {
	switch st := fl.Field().Interface().(type) {
	case string:
		return State(st).IsValid()
	case State:
		return st.IsValid()
	}
	return false
}
