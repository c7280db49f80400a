package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrAreaEmpty is returned when an area code is empty or whitespace-only after trim.
var ErrAreaEmpty = errors.New("area is required")

// ErrAreaTooLong is returned when an area code exceeds the maximum length.
var ErrAreaTooLong = errors.New("area too long")

// ErrAreaInvalidChars is returned when an area code contains disallowed characters.
var ErrAreaInvalidChars = errors.New("area contains invalid characters")

// maxAreaRunes bounds area codes. Country names and customer location codes
// are short; anything longer is garbage from the extraction step.
const maxAreaRunes = 100

// ValidateArea trims the input and restricts it to characters that appear in
// country names and location codes: letters (Unicode), digits, space, comma,
// hyphen, period, apostrophe. Returns the trimmed string or an error.
func ValidateArea(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrAreaEmpty
	}
	if len(r) > maxAreaRunes {
		return "", ErrAreaTooLong
	}
	for _, c := range r {
		if !isAllowedAreaRune(c) {
			return "", ErrAreaInvalidChars
		}
	}
	return s, nil
}

// NormalizeAreas validates each entry and returns the trimmed survivors.
// Entries that fail validation are dropped rather than failing the whole
// request; model output is noisy and one bad entry should not block the rest.
func NormalizeAreas(areas []string) []string {
	var out []string
	for _, a := range areas {
		s, err := ValidateArea(a)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func isAllowedAreaRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}
