package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHashtags(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"Nil", nil, []string{}},
		{"JSON Array String", []string{`["fitness", "legday"]`}, []string{"fitness", "legday"}},
		{"Free Text", []string{"fitness, legday  gains"}, []string{"fitness", "legday", "gains"}},
		{"Repeated Fields", []string{" fitness ", "", "leg day"}, []string{"fitness", "leg day"}},
		{"Order Kept With Duplicates", []string{"b a b"}, []string{"b", "a", "b"}},
		{"Blank", []string{"   "}, []string{}},
		{"Repeated Fields Are Not Decoded", []string{"[a", "b]"}, []string{"[a", "b]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHashtags(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHashtags_InvalidJSONList(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`["leg day", 7]`, `[1, 2]`, `[fitness`, ` [] x`} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseHashtags([]string{raw})
			assert.EqualError(t, err, "Value must be valid JSON.")
			assert.Nil(t, got)
		})
	}
}

func TestHashtagInput_Parse(t *testing.T) {
	t.Parallel()

	got, err := HashtagInput{Values: []string{"leg day", " squats "}, List: true}.Parse()
	require.NoError(t, err)
	assert.Equal(t, []string{"leg day", "squats"}, got)

	// A single list entry is never split.
	got, err = HashtagInput{Values: []string{"leg day"}, List: true}.Parse()
	require.NoError(t, err)
	assert.Equal(t, []string{"leg day"}, got)

	got, err = HashtagInput{Values: []string{"leg day"}}.Parse()
	require.NoError(t, err)
	assert.Equal(t, []string{"leg", "day"}, got)

	got, err = HashtagInput{List: true}.Parse()
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}

func TestParseHashtags_Limits(t *testing.T) {
	t.Parallel()

	_, err := ParseHashtags([]string{strings.Repeat("x", MaxHashtagLength+1)})
	assert.Error(t, err)

	_, err = ParseHashtags([]string{strings.Repeat("tag ", MaxHashtags+1)})
	assert.Error(t, err)

	got, err := ParseHashtags([]string{strings.Repeat("tag ", MaxHashtags)})
	require.NoError(t, err)
	assert.Len(t, got, MaxHashtags)

	_, err = NormalizeHashtags(strings.Fields(strings.Repeat("tag ", MaxHashtags+1)))
	assert.Error(t, err)
}
