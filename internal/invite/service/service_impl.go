package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamgate/internal/config"
	"github.com/smallbiznis/teamgate/internal/invite/domain"
	organizationdomain "github.com/smallbiznis/teamgate/internal/organization/domain"
	"github.com/smallbiznis/teamgate/internal/providers/email"
	"github.com/smallbiznis/teamgate/pkg/db"
	"go.uber.org/zap"
)

const (
	inviteSubject  = "Organisation Invitation"
	inviteTemplate = "invite"

	// maxTokenAttempts bounds token regeneration when an insert collides
	// with the unique token index.
	maxTokenAttempts = 3
)

type service struct {
	repo     domain.Repository
	orgs     organizationdomain.Repository
	mailer   email.Provider
	genID    *snowflake.Node
	genToken domain.TokenGenerator
	baseURL  string
}

func NewService(
	repo domain.Repository,
	orgs organizationdomain.Repository,
	mailer email.Provider,
	genID *snowflake.Node,
	genToken domain.TokenGenerator,
	cfg config.Config,
) domain.Service {
	return &service{
		repo:     repo,
		orgs:     orgs,
		mailer:   mailer,
		genID:    genID,
		genToken: genToken,
		baseURL:  cfg.FrontendBaseURL,
	}
}

// SendInviteLinks persists one invite per recipient and dispatches the
// invitation email for each. The organization is resolved once, before any
// persistence; a missing organization aborts the whole request. After that
// point recipients are processed independently: a persistence or dispatch
// failure for one recipient is recorded in the result and never stops the
// rest of the batch, and a dispatch failure never removes the already
// persisted invite.
func (s *service) SendInviteLinks(ctx context.Context, req domain.SendInviteLinksRequest) (*domain.SendInviteLinksResult, error) {
	org, err := s.lookupOrg(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	ref := domain.OrganizationRef{ID: org.ID.String(), Name: org.Name}
	result := &domain.SendInviteLinksResult{OrganizationID: ref.ID}

	for _, raw := range req.Emails {
		addr, addrErr := domain.NormalizeEmail(raw)
		if addrErr != nil {
			result.Failed = append(result.Failed, domain.RecipientFailure{
				Email:  raw,
				Reason: addrErr.Error(),
			})
			continue
		}

		now := time.Now().UTC()
		invite, err := s.persistInvite(ctx, domain.Invite{
			ID:        s.genID.Generate(),
			Token:     s.genToken(),
			OrgID:     org.ID,
			Email:     addr,
			IsGeneric: true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			zap.L().Error("persist invite",
				zap.String("org_id", ref.ID),
				zap.String("email", addr),
				zap.Error(err))
			result.Failed = append(result.Failed, domain.RecipientFailure{
				Email:  addr,
				Reason: "failed to persist invite",
			})
			continue
		}

		msg := email.Message{
			To:       []string{addr},
			Subject:  inviteSubject,
			Template: inviteTemplate,
			Context: map[string]any{
				"inviteLink":       domain.InviteLink(s.baseURL, ref, addr, invite.Token),
				"organisationName": org.Name,
			},
		}
		if err := s.mailer.SendTemplate(ctx, msg); err != nil {
			// The invite record stays; the recipient can be re-sent later.
			zap.L().Warn("dispatch invite email",
				zap.String("org_id", ref.ID),
				zap.String("email", addr),
				zap.Error(err))
			result.Failed = append(result.Failed, domain.RecipientFailure{
				Email:  addr,
				Reason: "failed to send invitation email",
			})
			continue
		}

		result.Sent++
	}

	return result, nil
}

// CreateInvite persists a generic invite bound to no recipient and returns a
// shareable link embedding only the token. Every call produces a fresh,
// independent invite.
func (s *service) CreateInvite(ctx context.Context, organizationID string) (*domain.CreateInviteResult, error) {
	org, err := s.lookupOrg(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invite, err := s.persistInvite(ctx, domain.Invite{
		ID:        s.genID.Generate(),
		Token:     s.genToken(),
		OrgID:     org.ID,
		IsGeneric: true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		zap.L().Error("persist generic invite",
			zap.String("org_id", org.ID.String()),
			zap.Error(err))
		return nil, domain.ErrStoreFailure
	}

	return &domain.CreateInviteResult{
		Link: domain.GenericInviteLink(s.baseURL, invite.Token),
	}, nil
}

// persistInvite inserts the invite, regenerating the token on a collision
// with the unique token index. Any other error is returned as-is.
func (s *service) persistInvite(ctx context.Context, invite domain.Invite) (domain.Invite, error) {
	var err error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		if err = s.repo.CreateInvite(ctx, invite); err == nil {
			return invite, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return invite, err
		}
		invite.Token = s.genToken()
	}
	return invite, err
}

func (s *service) ListInvites(ctx context.Context) ([]domain.InviteSummary, error) {
	invites, err := s.repo.ListInvites(ctx)
	if err != nil {
		zap.L().Error("list invites", zap.Error(err))
		return nil, domain.ErrStoreFailure
	}

	summaries := make([]domain.InviteSummary, 0, len(invites))
	for _, invite := range invites {
		summaries = append(summaries, domain.InviteSummary{
			ID:             invite.ID.String(),
			Token:          invite.Token,
			IsAccepted:     invite.IsAccepted,
			IsGeneric:      invite.IsGeneric,
			OrganizationID: invite.OrgID.String(),
			Email:          invite.Email,
		})
	}
	return summaries, nil
}

func (s *service) lookupOrg(ctx context.Context, id string) (*organizationdomain.Organization, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, organizationdomain.ErrInvalidOrganization
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return org, nil
}
