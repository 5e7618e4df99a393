package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteLinkEmbedsOrgEmailAndToken(t *testing.T) {
	org := OrganizationRef{ID: "1234", Name: "Acme"}
	link := InviteLink("https://app.example.com", org, "a+test@x.com", "tok-1")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "/invite", u.Path)
	assert.Equal(t, "1234", u.Query().Get("org"))
	assert.Equal(t, "a+test@x.com", u.Query().Get("email"))
	assert.Equal(t, "tok-1", u.Query().Get("token"))
}

func TestGenericInviteLinkEmbedsOnlyToken(t *testing.T) {
	link := GenericInviteLink("https://app.example.com", "tok-2")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/invite", u.Path)
	assert.Equal(t, "tok-2", u.Query().Get("token"))
	assert.False(t, u.Query().Has("org"))
	assert.False(t, u.Query().Has("email"))
}

func TestInviteLinkWithEmptyBaseURL(t *testing.T) {
	// Missing configuration yields a relative URL rather than a panic;
	// startup validation is the caller's concern.
	link := GenericInviteLink("", "tok-3")
	assert.Equal(t, "/invite?token=tok-3", link)
}
