package validation

import (
	"strings"
	"testing"

	"artfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	URL  string   `json:"url" validate:"required,max=500,web_url"`
	Body string   `json:"body" validate:"max=2000"`
	Tags []string `json:"tags" validate:"max=10,dive,required,max=20"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      submission
		wantMsg string
	}{
		{"valid", submission{URL: "https://www.flickr.com/photos/a/1", Tags: []string{"ink"}}, ""},
		{"missing url", submission{}, "url is required"},
		{"not http", submission{URL: "ftp://example.com/x"}, "url must be a valid http(s) URL"},
		{"relative", submission{URL: "/photos/1"}, "url must be a valid http(s) URL"},
		{"url too long", submission{URL: "https://example.com/" + strings.Repeat("a", 500)}, "url must be at most 500 characters"},
		{"body too long", submission{URL: "https://example.com", Body: strings.Repeat("b", 2001)}, "body must be at most 2000 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize(`<script>alert(1)</script>hello`))
	assert.Equal(t, "bold", Sanitize(" <b>bold</b> "))
	assert.Equal(t, "plain text", Sanitize("plain text"))
}

func TestSanitize_KeepsPlainTextVerbatim(t *testing.T) {
	for _, in := range []string{
		`Tom & Jerry's "best" <3`,
		"5 > 3 & 2 < 4",
		strings.Repeat("&", 100),
	} {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, in, Sanitize(in))
		})
	}
}

func TestAccountFields(t *testing.T) {
	t.Parallel()
	long := func(n int) string { return strings.Repeat("x", n) }

	tests := []struct {
		name    string
		check   func(string) error
		value   string
		wantErr bool
	}{
		{"password ok", ValidatePassword, "Darkroom-Print7", false},
		{"password min length", ValidatePassword, "Aperture#f2x", false},
		{"password max length", ValidatePassword, "Q" + long(125) + "9?", false},
		{"password non ascii", ValidatePassword, "Ölgemälde-2024", false},
		{"password short", ValidatePassword, "Sh0rt!", true},
		{"password long", ValidatePassword, "Q" + long(126) + "9?", true},
		{"password no upper", ValidatePassword, "darkroom-print7", true},
		{"password no lower", ValidatePassword, "DARKROOM-PRINT7", true},
		{"password no digit", ValidatePassword, "Darkroom-Prints", true},
		{"password no symbol", ValidatePassword, "DarkroomPrint77", true},

		{"username ok", ValidateUsername, "ansel-adams_1902", false},
		{"username three chars", ValidateUsername, "ivy", false},
		{"username two chars", ValidateUsername, "iv", true},
		{"username dot", ValidateUsername, "ansel.adams", true},
		{"username leading underscore", ValidateUsername, "_ansel", true},
		{"username trailing dash", ValidateUsername, "ansel-", true},
		{"username 151 chars", ValidateUsername, long(151), true},

		{"email ok", ValidateEmail, "curator@museum.org", false},
		{"email too long", ValidateEmail, long(249) + "@a.org", true},
		{"email no at", ValidateEmail, "curator.museum.org", true},
		{"email no domain", ValidateEmail, "curator@", true},
		{"email double at", ValidateEmail, "curator@@museum.org", true},
		{"email space", ValidateEmail, "cu rator@museum.org", true},
		{"email trailing dot", ValidateEmail, "curator@museum.org.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
