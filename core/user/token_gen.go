package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/simplesis/simplesis/core"
)

// Password reset tokens look like "<seconds since tokenEpoch, base36>-<signature>".
// The signature covers the password hash and last login, so a token stops working
// once the password is changed or the user logs in.

var (
	tokenSalt  = []byte("simplesis.core.user.token_gen")
	tokenEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID base64 encodes the User ID for use in reset links.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(usr.ID, 10)))
}

func decodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

// MakeToken generates a password reset token for usr.
func MakeToken(usr User, secretKey string) (string, error) {
	ts := int64(core.NowFunc().Sub(tokenEpoch) / time.Second)
	return tokenAt(usr, ts, secretKey), nil
}

func verifyToken(usr User, token, secretKey string, timeout time.Duration) error {
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return errInvalidToken
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return errInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(tokenAt(usr, ts, secretKey)), []byte(token)) != 1 {
		return errInvalidToken
	}

	issuedAt := tokenEpoch.Add(time.Duration(ts) * time.Second)
	if core.NowFunc().Sub(issuedAt) > timeout {
		return errTokenExpired
	}
	return nil
}

func tokenAt(usr User, ts int64, secretKey string) string {
	key := sha256.Sum256(append(append([]byte{}, tokenSalt...), secretKey...))
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(strconv.FormatInt(usr.ID, 10)))
	mac.Write(usr.PasswordHash)
	if usr.LastLogin != nil {
		mac.Write([]byte(usr.LastLogin.UTC().Format(time.RFC3339Nano)))
	}
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	return strconv.FormatInt(ts, 36) + "-" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
