package shared

import (
	"strings"
	"unicode"
)

// UserID identifies the owner of every per-user key. It must be non-empty
// and free of whitespace, ':' (the namespace separator of shared keys) and
// the glob characters backends use to list keys by prefix.
type UserID string

const reservedUserIDChars = `:*?[]\`

// NewUserID validates and trims raw.
func NewUserID(raw string) (UserID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyUserID
	}
	for _, r := range id {
		if unicode.IsSpace(r) || strings.ContainsRune(reservedUserIDChars, r) {
			return "", WrapError("userstore", "Key", ErrInvalidID, "user id contains a reserved character", ErrInvalidID)
		}
	}
	return UserID(id), nil
}

// String implements fmt.Stringer.
func (id UserID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id UserID) IsZero() bool {
	return id == ""
}
