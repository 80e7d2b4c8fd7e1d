// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var attributeSplitter = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// UserAttribute is a piece of account data a password must not resemble.
type UserAttribute struct {
	Name  string
	Value string
}

// ValidatePassword applies the account password rules and returns every failed rule's message.
// An empty result means the password is acceptable.
func ValidatePassword(password string, attrs ...UserAttribute) []string {
	var problems []string

	length := utf8.RuneCountInString(password)
	if length < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if length > MaxPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too long. It must contain at most %d characters.", MaxPasswordLength))
	}

	if password != "" && isAllDigits(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	if _, common := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; common {
		problems = append(problems, "This password is too common.")
	}

	for _, attr := range attrs {
		if tooSimilar(password, attr.Value) {
			problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", attr.Name))
		}
	}

	return problems
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MaxSimilarity is the quick-ratio at which a password counts as too close to an attribute.
const MaxSimilarity = 0.7

// tooSimilar compares the password with the whole attribute and with each of its
// words using a character-multiset ratio. Passwords far longer than a word skip that word.
func tooSimilar(password, value string) bool {
	pw := strings.ToLower(password)
	value = strings.ToLower(strings.TrimSpace(value))
	if pw == "" || value == "" {
		return false
	}

	parts := append(attributeSplitter.Split(value, -1), value)
	for _, part := range parts {
		if part == "" || exceedsLengthRatio(pw, part) {
			continue
		}
		if quickRatio(pw, part) >= MaxSimilarity {
			return true
		}
	}
	return false
}

func exceedsLengthRatio(password, part string) bool {
	pwLen := utf8.RuneCountInString(password)
	partLen := utf8.RuneCountInString(part)
	return pwLen >= 10*partLen && float64(partLen) < MaxSimilarity/2*float64(pwLen)
}

// quickRatio is 2*M/T where M counts runes shared by a and b (with multiplicity).
func quickRatio(a, b string) float64 {
	avail := make(map[rune]int)
	for _, r := range b {
		avail[r]++
	}
	matches := 0
	for _, r := range a {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(matches) / float64(total)
}

// EmailLocalPart returns the part before the last "@"; the domain is shared by too
// many accounts to be a meaningful similarity source.
func EmailLocalPart(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return errors.New("Enter a valid email address.")
	}

	if len(email) > 254 {
		return errors.New("Ensure this field has no more than 254 characters.")
	}

	return nil
}

// NormalizeEmail trims and lowercases an address; stored emails are always normalized.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
