package domain

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// TokenGenerator produces an opaque invite credential. Implementations must
// carry at least 128 bits of entropy so tokens can be trusted unique without
// a store lookup, and must not fail.
type TokenGenerator func() string

type Service interface {
	SendInviteLinks(ctx context.Context, req SendInviteLinksRequest) (*SendInviteLinksResult, error)
	CreateInvite(ctx context.Context, organizationID string) (*CreateInviteResult, error)
	ListInvites(ctx context.Context) ([]InviteSummary, error)
}

type SendInviteLinksRequest struct {
	OrganizationID string
	Emails         []string
}

// RecipientFailure records why a single recipient could not be invited.
// Reason is safe to return to callers; the underlying cause goes to logs.
type RecipientFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// SendInviteLinksResult aggregates per-recipient outcomes. A failed recipient
// never aborts the rest of the batch.
type SendInviteLinksResult struct {
	OrganizationID string             `json:"organization_id"`
	Sent           int                `json:"sent"`
	Failed         []RecipientFailure `json:"failed,omitempty"`
}

type CreateInviteResult struct {
	Link string `json:"link"`
}

type InviteSummary struct {
	ID             string `json:"id"`
	Token          string `json:"token"`
	IsAccepted     bool   `json:"is_accepted"`
	IsGeneric      bool   `json:"is_generic"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email,omitempty"`
}

var (
	ErrInvalidEmail = errors.New("invalid_email")

	// ErrStoreFailure masks unexpected persistence errors; the raw cause is
	// logged, never returned to callers.
	ErrStoreFailure = errors.New("store_failure")
)

// NormalizeEmail validates a recipient address and returns its canonical
// form, stripping any display name ("Team Lead <lead@x.com>" becomes
// "lead@x.com"). Rejections are reported as ErrInvalidEmail.
func NormalizeEmail(raw string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidEmail
	}
	return parsed.Address, nil
}
