package echoweb

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/user"
)

const (
	SessionCookieName = "sessionid"
	contextUserKey    = "user"
	loginPath         = "/login"
)

var errInvalidSession = errors.New("invalid session")

// Claims is the payload of the signed session cookie.
type Claims struct {
	jwt.StandardClaims
	Email   string `json:"email,omitempty"`
	IsStaff bool   `json:"is_staff,omitempty"`
}

type sessions struct {
	conf    *core.Config
	userSvc user.Service
}

func (s *sessions) signingKey() []byte { return []byte(s.conf.SecretKey) }

// GenerateToken signs a session token for usr.
func (s *sessions) GenerateToken(usr user.User) (string, error) {
	now := core.NowFunc()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.conf.AppName,
			Subject:   strconv.FormatInt(usr.ID, 10),
			ExpiresAt: now.Add(s.conf.Server.SessionMaxAge).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:   usr.Email,
		IsStaff: usr.IsStaff,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(s.signingKey())
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (s *sessions) parseToken(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey(), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidSession
	}
	return claims, nil
}

// login stores a new session cookie for usr.
func (s *sessions) login(ctx echo.Context, usr user.User) error {
	token, err := s.GenerateToken(usr)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.conf.Server.SessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   !(s.conf.Debug || s.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *sessions) logout(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// middleware loads the session user, if any, into the context.
// Expired or tampered cookies and inactive users are treated as anonymous.
func (s *sessions) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(ctx)
		}
		claims, err := s.parseToken(cookie.Value)
		if err != nil {
			s.logout(ctx)
			return next(ctx)
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			s.logout(ctx)
			return next(ctx)
		}
		usr, err := s.userSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) != user.ErrNotFound {
				return errors.Wrap(err, "loading session user")
			}
			s.logout(ctx)
			return next(ctx)
		}
		if usr.IsActive {
			ctx.Set(contextUserKey, usr)
		}
		return next(ctx)
	}
}

func getContextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}

// loginRequired redirects anonymous requests to the login page, remembering where they were going.
func loginRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := getContextUser(ctx); ok {
			return next(ctx)
		}
		v := url.Values{"next": {ctx.Request().URL.RequestURI()}}
		return ctx.Redirect(http.StatusFound, loginPath+"?"+v.Encode())
	}
}

// superUserRequired only lets through staff users who are not attached to a school.
func superUserRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if usr, ok := getContextUser(ctx); ok && usr.IsStaff && usr.IsSuperAdmin() {
			return next(ctx)
		}
		return errHTTPForbidden
	}
}

// safeNext only allows redirects to local paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}
