package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/user"
	"github.com/simplesis/simplesis/services/email"
	"github.com/simplesis/simplesis/tests"
)

func TestService_Authenticate(t *testing.T) {
	env := testutil.NewEnv(t)
	active := testutil.CreateUser(t, env, "active@test.au", "Sup3r-S3cret!", nil, false)
	inactive := testutil.CreateUser(t, env, "inactive@test.au", "Sup3r-S3cret!", nil, false)
	testutil.DeactivateUser(t, env, inactive)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
		wantID  int64
	}{
		{name: "ok", email: "active@test.au", pwd: "Sup3r-S3cret!", wantID: active.ID},
		{name: "email case and spaces ignored", email: "  ACTIVE@test.au ", pwd: "Sup3r-S3cret!", wantID: active.ID},
		{name: "wrong password", email: "active@test.au", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@test.au", pwd: "Sup3r-S3cret!", wantErr: user.ErrInvalidCredentials},
		{name: "inactive", email: "inactive@test.au", pwd: "Sup3r-S3cret!", wantErr: user.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := env.UserSvc.Authenticate(context.Background(), tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, usr.ID)
		})
	}
}

func TestService_SetLastLogin(t *testing.T) {
	env := testutil.NewEnv(t)
	usr := testutil.CreateUser(t, env, "u@test.au", "pwd", nil, false)
	require.Nil(t, usr.LastLogin)

	usr, err := env.UserSvc.SetLastLogin(context.Background(), usr)
	require.NoError(t, err)
	assert.NotNil(t, usr.LastLogin)
}

func TestService_PasswordReset(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, env, "reset@test.au", "Old-Passw0rd!", nil, false)
	ghost := testutil.DeactivateUser(t, env, testutil.CreateUser(t, env, "ghost@test.au", "pwd", nil, false))
	emailsvc.PopSentMessages()

	// unknown and inactive accounts get nothing
	assert.Equal(t, user.ErrNotFound, errors.Cause(env.UserSvc.RequestPasswordReset(ctx, "nobody@test.au")))
	assert.Equal(t, user.ErrNotFound, errors.Cause(env.UserSvc.RequestPasswordReset(ctx, ghost.Email)))
	assert.Empty(t, emailsvc.PopSentMessages())

	require.NoError(t, env.UserSvc.RequestPasswordReset(ctx, "RESET@test.au"))
	sent := emailsvc.PopSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)

	uid := user.EncodeUID(usr)
	token, err := user.MakeToken(usr, env.Conf.SecretKey)
	require.NoError(t, err)
	assert.Contains(t, sent[0].TextContent, token)
	assert.Contains(t, sent[0].HTMLContent, uid)

	t.Run("bad token", func(t *testing.T) {
		err := env.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: "bad-token", Password: "N3w-Passw0rd!"})
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok, "want *core.ValidationError, got %v", err)
		assert.Contains(t, vErr.FieldErrors(), "token")
	})

	t.Run("bad uid", func(t *testing.T) {
		err := env.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: "!!", Token: token, Password: "N3w-Passw0rd!"})
		_, ok := errors.Cause(err).(*core.ValidationError)
		assert.True(t, ok)
	})

	t.Run("ok", func(t *testing.T) {
		err := env.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "N3w-Passw0rd!"})
		require.NoError(t, err)

		_, err = env.UserSvc.Authenticate(ctx, usr.Email, "N3w-Passw0rd!")
		assert.NoError(t, err)
		_, err = env.UserSvc.Authenticate(ctx, usr.Email, "Old-Passw0rd!")
		assert.Equal(t, user.ErrInvalidCredentials, errors.Cause(err))
	})

	t.Run("token is single use", func(t *testing.T) {
		err := env.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "An0ther-Passw0rd!"})
		_, ok := errors.Cause(err).(*core.ValidationError)
		assert.True(t, ok)
	})
}

func TestNewUser_Validate(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.CreateUser(t, env, "taken@test.au", "pwd", nil, false)

	tests := []struct {
		name       string
		data       user.NewUser
		wantFields []string
	}{
		{
			name:       "email taken",
			data:       user.NewUser{Email: " TAKEN@test.au", Password: "Sup3r-S3cret!", PasswordConfirm: "Sup3r-S3cret!"},
			wantFields: []string{"email"},
		},
		{
			name:       "passwords differ",
			data:       user.NewUser{Email: "new@test.au", Password: "Sup3r-S3cret!", PasswordConfirm: "other"},
			wantFields: []string{"password_confirm"},
		},
		{
			name: "ok",
			data: user.NewUser{Email: "new@test.au", FirstName: "Ada", Password: "Sup3r-S3cret!", PasswordConfirm: "Sup3r-S3cret!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(context.Background(), env.Validate, env.UserSvc)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fldErrs, ok := core.FieldErrors(err, env.Translator)
			require.True(t, ok, "want field errors, got %v", err)
			for _, f := range tt.wantFields {
				assert.Contains(t, fldErrs, f)
			}
		})
	}
}

func TestService_AccountTypes(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	at, err := env.UserSvc.CreateAccountType(ctx, user.NewAccountType{Name: "Parent"}, nil)
	require.NoError(t, err)

	usr, err := env.UserSvc.Create(ctx, user.NewUser{Email: "p@test.au", Password: "pwd", AccountTypeID: &at.ID}, nil)
	require.NoError(t, err)

	_, err = env.UserSvc.DeleteAccountTypes(ctx, at.ID)
	assert.True(t, core.IsProtected(err))

	_, err = env.UserSvc.Delete(ctx, usr.ID)
	require.NoError(t, err)
	n, err := env.UserSvc.DeleteAccountTypes(ctx, at.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
