package domain

import "net/url"

// OrganizationRef carries the organization fields invite links and email
// templates actually need.
type OrganizationRef struct {
	ID   string
	Name string
}

// InviteLink builds the front-end URL a named recipient follows to redeem
// an invite.
func InviteLink(baseURL string, org OrganizationRef, email, token string) string {
	q := url.Values{}
	q.Set("org", org.ID)
	q.Set("email", email)
	q.Set("token", token)
	return baseURL + "/invite?" + q.Encode()
}

// GenericInviteLink builds a shareable invite URL bound to no recipient.
// Only the token is embedded.
func GenericInviteLink(baseURL, token string) string {
	q := url.Values{}
	q.Set("token", token)
	return baseURL + "/invite?" + q.Encode()
}
