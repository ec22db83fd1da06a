package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		expected string
	}{
		{"real name set", Profile{RealName: "Ada", User: &User{Username: "ada99"}}, "Ada"},
		{"falls back to username", Profile{User: &User{Username: "ada99"}}, "ada99"},
		{"whitespace real name", Profile{RealName: "  ", User: &User{Username: "ada99"}}, "ada99"},
		{"no user loaded", Profile{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.profile.DisplayName())
		})
	}
}

func TestProfile_AvatarURL(t *testing.T) {
	p := Profile{}
	assert.False(t, p.IsAvatarSet())
	assert.Equal(t, DefaultAvatarURL, p.AvatarURL())

	p.Image = "/media/avatars/abc.webp"
	assert.True(t, p.IsAvatarSet())
	assert.Equal(t, "/media/avatars/abc.webp", p.AvatarURL())
}

func TestNewProfileView(t *testing.T) {
	p := &Profile{ID: 3, UserID: 7, User: &User{ID: 7, Username: "mo"}}
	v := NewProfileView(p)

	assert.Equal(t, "mo", v.Name)
	assert.Equal(t, "mo", v.Username)
	assert.Equal(t, DefaultAvatarURL, v.Avatar)
	assert.False(t, v.AvatarIsSet)
}

func TestProfileView_EmailOnlyForOwner(t *testing.T) {
	p := &Profile{ID: 3, UserID: 7, Email: "mo@example.com", User: &User{ID: 7, Username: "mo", Email: "mo@example.com"}}

	public, err := json.Marshal(NewProfileView(p))
	require.NoError(t, err)
	assert.NotContains(t, string(public), "mo@example.com")

	own, err := json.Marshal(NewOwnProfileView(p))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(own, &decoded))
	assert.Equal(t, "mo@example.com", decoded["email"])
	assert.NotContains(t, decoded["user"], "email")
}

func TestAccountView_Email(t *testing.T) {
	u := &User{ID: 7, Username: "mo", Email: "mo@example.com"}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "mo@example.com")

	raw, err = json.Marshal(NewAccountView(u))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "mo@example.com", decoded["email"])
	assert.Equal(t, "mo", decoded["username"])
}
