package audio

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyText is returned for requests without a token
var ErrEmptyText = errors.New("text cannot be empty")

// ValidateText checks that a request carries a token to pronounce
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}

// ContainsArabic reports whether text has at least one Arabic character
func ContainsArabic(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Arabic) {
			return true
		}
	}
	return false
}
