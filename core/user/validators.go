package user

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/simplesis/simplesis/core"
	appfs "github.com/simplesis/simplesis/fs"
)

const (
	pwdMinLen           = 8
	pwdMaxSimilarity    = .7
	commonPasswordsPath = "assets/common-passwords.txt"
)

// passwordRule is one check of the password policy, reported under its own validation tag.
type passwordRule struct {
	tag   string
	text  string
	fails func(pwd string, attrs []string) bool
}

// passwordPolicy rules run in order; only the first failure is reported.
var passwordPolicy = []passwordRule{
	{
		tag:  "pwdminlen",
		text: fmt.Sprintf("password must contain at least %d characters", pwdMinLen),
		fails: func(pwd string, _ []string) bool {
			return len([]rune(pwd)) < pwdMinLen
		},
	},
	{
		tag:  "pwdnospace",
		text: "password must not contain whitespace",
		fails: func(pwd string, _ []string) bool {
			return strings.IndexFunc(pwd, unicode.IsSpace) >= 0
		},
	},
	{
		tag:  "pwdnotallnum",
		text: "password cannot be entirely numeric",
		fails: func(pwd string, _ []string) bool {
			return strings.IndexFunc(pwd, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
		},
	},
	{
		tag:   "pwdcplx",
		text:  "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
		fails: func(pwd string, _ []string) bool { return !isComplex(pwd) },
	},
	{
		tag:  "pwdtoosim",
		text: "password cannot be similar to user attributes",
		fails: func(pwd string, attrs []string) bool {
			lpwd := strings.Split(strings.ToLower(pwd), "")
			for _, attr := range attrs {
				if attr == "" {
					continue
				}
				m := difflib.NewMatcher(lpwd, strings.Split(strings.ToLower(attr), ""))
				if m.QuickRatio() >= pwdMaxSimilarity {
					return true
				}
			}
			return false
		},
	},
	{
		tag:   "pwdnocommon",
		text:  "password is too common",
		fails: func(pwd string, _ []string) bool { return commonPasswords.contains(pwd) },
	},
}

func isComplex(pwd string) bool {
	var upper, lower, digit, special bool
	for _, r := range pwd {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)):
			special = true
		}
	}
	return upper && lower && digit && special
}

// commonPasswords is the sorted, lowercased list embedded in assets.
var commonPasswords = &passwordList{}

type passwordList struct {
	once sync.Once
	pwds []string
}

func (l *passwordList) load() {
	f, err := appfs.FS.Open(commonPasswordsPath)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			l.pwds = append(l.pwds, strings.ToLower(pwd))
		}
	}
	sort.Strings(l.pwds)
}

func (l *passwordList) contains(pwd string) bool {
	l.once.Do(l.load)
	pwd = strings.ToLower(pwd)
	idx := sort.SearchStrings(l.pwds, pwd)
	return idx < len(l.pwds) && l.pwds[idx] == pwd
}

// InitValidators registers the password policy on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{}, ResetUserPassword{})
	for _, rule := range passwordPolicy {
		core.RegisterCustomTranslation(validate, translator, rule.tag, rule.text)
	}
}

// userStructValidation applies the password policy to NewUser, UpdateUser and ResetUserPassword.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(sl, usr.Password, usr.FirstName, usr.LastName, usr.Email)
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(sl, usr.Password, usr.FirstName, usr.LastName, usr.Email)
		}
	case ResetUserPassword:
		if usr.Password != "" {
			validatePassword(sl, usr.Password)
		}
	}
}

func validatePassword(sl validator.StructLevel, pwd string, usrAttrs ...string) {
	for _, rule := range passwordPolicy {
		if rule.fails(pwd, usrAttrs) {
			sl.ReportError(pwd, "password", "Password", rule.tag, "")
			return
		}
	}
}
