package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxHashtags      = 30
	MaxHashtagLength = 50
)

var errHashtagJSON = errors.New("Value must be valid JSON.")

// HashtagInput is the hashtags field as sent. List marks a JSON array body
// value, whose entries are taken as-is; otherwise Values are form values.
type HashtagInput struct {
	Values []string
	List   bool
}

// Parse normalizes the input according to how it was sent.
func (in HashtagInput) Parse() ([]string, error) {
	if in.List {
		return NormalizeHashtags(in.Values)
	}
	return ParseHashtags(in.Values)
}

// ParseHashtags normalizes the raw hashtag values of a form request.
//
// A single value may be a JSON array string (`["a","b"]`) or free text split on
// whitespace and commas. Multiple values are taken as one tag each. The result is never nil.
func ParseHashtags(raw []string) ([]string, error) {
	candidates := raw
	if len(raw) == 1 {
		var err error
		if candidates, err = splitHashtagValue(raw[0]); err != nil {
			return nil, err
		}
	}
	return NormalizeHashtags(candidates)
}

// NormalizeHashtags trims entries, drops empties and keeps order.
func NormalizeHashtags(candidates []string) ([]string, error) {
	tags := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxHashtagLength {
			return nil, fmt.Errorf("Each hashtag must be at most %d characters.", MaxHashtagLength)
		}
		tags = append(tags, tag)
	}

	if len(tags) > MaxHashtags {
		return nil, fmt.Errorf("Ensure this field has no more than %d elements.", MaxHashtags)
	}
	return tags, nil
}

// splitHashtagValue reads a "["-prefixed value as a JSON list of strings and
// anything else as free text.
func splitHashtagValue(value string) ([]string, error) {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, errHashtagJSON
		}
		return list, nil
	}
	return strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}), nil
}
