package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesis/simplesis/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestPasswordPolicy(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: "pwdminlen"},
		{name: "whitespace", pwd: "Abcd 1234!", wantTag: "pwdnospace"},
		{name: "all numeric", pwd: "1234567890", wantTag: "pwdnotallnum"},
		{name: "no special", pwd: "Abcdefgh1", wantTag: "pwdcplx"},
		{name: "no upper", pwd: "abcdefg1!", wantTag: "pwdcplx"},
		{name: "similar to email", pwd: "Jane.Doe@x1", wantTag: "pwdtoosim"},
		{name: "common", pwd: "P@ssw0rd", wantTag: "pwdnocommon"},
		{name: "valid", pwd: "Sup3r-S3cret!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Email:           "jane.doe@x.com",
				FirstName:       "Jane",
				LastName:        "Doe",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			require.Len(t, vErrs, 1)
			assert.Equal(t, "password", vErrs[0].Field())
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestResetUserPasswordPolicy(t *testing.T) {
	validate := newValidator()

	err := ResetUserPassword{Token: "t", UID: "u", Password: "short", PasswordConfirm: "short"}.Validate(validate)
	assert.Error(t, err)

	err = ResetUserPassword{Token: "t", UID: "u", Password: "Sup3r-S3cret!", PasswordConfirm: "Sup3r-S3cret!"}.Validate(validate)
	assert.NoError(t, err)

	err = ResetUserPassword{Token: "t", UID: "u", Password: "Sup3r-S3cret!", PasswordConfirm: "other"}.Validate(validate)
	assert.Error(t, err)
}

func TestFieldErrorsTranslated(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	err := validate.Struct(NewUser{Email: "x@y.z", Password: "abc", PasswordConfirm: "abc"})
	fldErrs, ok := core.FieldErrors(err, translator)
	require.True(t, ok)
	assert.Equal(t, "password must contain at least 8 characters", fldErrs["password"])
}
