package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	attrs := []UserAttribute{
		{Name: "email", Value: EmailLocalPart("jane.doe@example.com")},
		{Name: "full name", Value: "Jane Doe"},
	}

	tests := []struct {
		name     string
		password string
		wantMsgs []string
	}{
		{"Valid", "Str0ngPass!", nil},
		{"Exactly Min Length", "Kx7#pq2!", nil},
		{"Exactly Max Length", "Q" + strings.Repeat("z", 126) + "7", nil},
		{"Too Short", "Kx7#pq", []string{"too short"}},
		{"Too Long", "Q" + strings.Repeat("z", 127) + "7", []string{"too long"}},
		{"Entirely Numeric", "90817263", []string{"entirely numeric"}},
		{"Common", "Password123", []string{"too common"}},
		{"Common And Numeric", "12345678", []string{"entirely numeric", "too common"}},
		{"Close To Email And Name", "janedoe1", []string{"similar to the email", "similar to the full name"}},
		{"Shuffled Name", "Doe Jane 7", []string{"similar to the full name", "similar to the email"}},
		{"Shares A Few Letters", "janedoe-lifts", nil},
		{"Short And Numeric", "123", []string{"too short", "entirely numeric"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.password, attrs...)
			require.Len(t, got, len(tt.wantMsgs), "%v", got)
			joined := strings.Join(got, "\n")
			for _, msg := range tt.wantMsgs {
				assert.Contains(t, joined, msg)
			}
		})
	}
}

func TestValidatePassword_SimilarToEmail(t *testing.T) {
	t.Parallel()
	got := ValidatePassword("marathon77", UserAttribute{Name: "email", Value: EmailLocalPart("marathon@example.com")})
	assert.Equal(t, []string{"The password is too similar to the email."}, got)
}

func TestValidatePassword_EmailDomainIgnored(t *testing.T) {
	t.Parallel()
	attrs := []UserAttribute{
		{Name: "email", Value: EmailLocalPart("jane@gmail.com")},
		{Name: "full name", Value: "Jane"},
	}
	for _, pw := range []string{"Welcome2024!", "Gmailfan#99", "comeback.com"} {
		assert.Empty(t, ValidatePassword(pw, attrs...), pw)
	}
}

func TestValidatePassword_LongPasswordSkipsShortWords(t *testing.T) {
	t.Parallel()
	got := ValidatePassword("jo-"+strings.Repeat("xk7q", 8), UserAttribute{Name: "full name", Value: "Jo"})
	assert.Empty(t, got)
}

func TestQuickRatio(t *testing.T) {
	assert.InDelta(t, 1.0, quickRatio("abc", "cba"), 1e-9)
	assert.InDelta(t, 0.0, quickRatio("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.5, quickRatio("ab", "ax"), 1e-9)
	assert.Equal(t, "jane.doe", EmailLocalPart("jane.doe@example.com"))
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	// 254 chars total: 64 local + @ + 185 domain label + ".com" (4)
	emailAt254 := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Exactly 254 Characters", emailAt254, false},
		{"Too Long", "a" + emailAt254, true},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
		{"Trailing Dot In Domain", "user@example.com.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}
