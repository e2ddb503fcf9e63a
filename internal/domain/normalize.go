package domain

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidEmail indicates input that cannot be normalized into a
// canonical email address.
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail canonicalizes a raw submitted address: surrounding
// whitespace is trimmed and the whole string lower-cased. The shape check is
// deliberately permissive: exactly one '@', a non-empty local part and
// domain, and no whitespace anywhere. A dot in the domain is not required.
//
// Pure function; every operation that writes or queries a subscriber derives
// its key through here.
func NormalizeEmail(raw string) (CanonicalEmail, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidEmail
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') || at == len(s)-1 {
		return "", ErrInvalidEmail
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			return "", ErrInvalidEmail
		}
	}
	return CanonicalEmail(s), nil
}
