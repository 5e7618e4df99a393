package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/teamgate/internal/config"
	invitedomain "github.com/smallbiznis/teamgate/internal/invite/domain"
	inviterepository "github.com/smallbiznis/teamgate/internal/invite/repository"
	organizationdomain "github.com/smallbiznis/teamgate/internal/organization/domain"
	organizationrepository "github.com/smallbiznis/teamgate/internal/organization/repository"
	"github.com/smallbiznis/teamgate/internal/providers/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mailerFake records every dispatched message and fails for the recipients
// listed in failFor.
type mailerFake struct {
	messages []email.Message
	failFor  map[string]bool
}

func (m *mailerFake) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (m *mailerFake) SendTemplate(ctx context.Context, msg email.Message) error {
	m.messages = append(m.messages, msg)
	if len(msg.To) > 0 && m.failFor[msg.To[0]] {
		return errors.New("smtp: connection refused")
	}
	return nil
}

type fixture struct {
	db     *gorm.DB
	svc    invitedomain.Service
	mailer *mailerFake
	org    organizationdomain.Organization
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&organizationdomain.Organization{}, &invitedomain.Invite{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	org := organizationdomain.Organization{
		ID:   node.Generate(),
		Name: "Acme",
		Slug: "acme",
	}
	require.NoError(t, db.Create(&org).Error)

	mailer := &mailerFake{failFor: map[string]bool{}}
	svc := NewService(
		inviterepository.NewRepository(db),
		organizationrepository.NewRepository(db),
		mailer,
		node,
		newSequenceTokens(),
		config.Config{FrontendBaseURL: "https://app.example.com"},
	)

	return &fixture{db: db, svc: svc, mailer: mailer, org: org}
}

func newSequenceTokens() invitedomain.TokenGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tok-%04d", n)
	}
}

func (f *fixture) storedInvites(t *testing.T) []invitedomain.Invite {
	t.Helper()
	var invites []invitedomain.Invite
	require.NoError(t, f.db.Order("id ASC").Find(&invites).Error)
	return invites
}

func TestSendInviteLinksProcessesEveryRecipient(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
		Emails:         []string{"a@x.com", "b@x.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Empty(t, result.Failed)

	invites := f.storedInvites(t)
	require.Len(t, invites, 2)
	for i, addr := range []string{"a@x.com", "b@x.com"} {
		assert.Equal(t, addr, invites[i].Email)
		assert.Equal(t, f.org.ID, invites[i].OrgID)
		assert.True(t, invites[i].IsGeneric)
		assert.False(t, invites[i].IsAccepted)
	}

	require.Len(t, f.mailer.messages, 2)
	for i, addr := range []string{"a@x.com", "b@x.com"} {
		msg := f.mailer.messages[i]
		assert.Equal(t, []string{addr}, msg.To)
		assert.Equal(t, "Organisation Invitation", msg.Subject)
		assert.Equal(t, "invite", msg.Template)
		assert.Equal(t, "Acme", msg.Context["organisationName"])

		link, ok := msg.Context["inviteLink"].(string)
		require.True(t, ok)
		u, err := url.Parse(link)
		require.NoError(t, err)
		assert.Equal(t, "/invite", u.Path)
		assert.Equal(t, f.org.ID.String(), u.Query().Get("org"))
		assert.Equal(t, addr, u.Query().Get("email"))
		assert.Equal(t, invites[i].Token, u.Query().Get("token"))
	}
}

func TestSendInviteLinksOrganizationMissing(t *testing.T) {
	f := newFixture(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	missing := node.Generate().String()

	_, err = f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: missing,
		Emails:         []string{"a@x.com"},
	})
	assert.ErrorIs(t, err, organizationdomain.ErrNotFound)
	assert.Empty(t, f.storedInvites(t))
	assert.Empty(t, f.mailer.messages)
}

func TestSendInviteLinksInvalidOrganizationID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: "not-a-snowflake",
		Emails:         []string{"a@x.com"},
	})
	assert.ErrorIs(t, err, organizationdomain.ErrInvalidOrganization)
	assert.Empty(t, f.storedInvites(t))
}

func TestSendInviteLinksDispatchFailureDoesNotStopBatch(t *testing.T) {
	f := newFixture(t)
	f.mailer.failFor["b@x.com"] = true

	result, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
		Emails:         []string{"a@x.com", "b@x.com", "c@x.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "b@x.com", result.Failed[0].Email)
	assert.NotContains(t, result.Failed[0].Reason, "smtp")

	// The failed recipient's invite record stays persisted.
	assert.Len(t, f.storedInvites(t), 3)
	assert.Len(t, f.mailer.messages, 3)
}

func TestSendInviteLinksInvalidRecipientAddress(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
		Emails:         []string{"  ", "nodomain", "ok@x.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	require.Len(t, result.Failed, 2)
	for _, failure := range result.Failed {
		assert.Equal(t, invitedomain.ErrInvalidEmail.Error(), failure.Reason)
	}
	assert.Len(t, f.storedInvites(t), 1)
	assert.Len(t, f.mailer.messages, 1)
}

func TestSendInviteLinksNormalizesDisplayNames(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
		Emails:         []string{"Team Lead <lead@x.com>"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	invites := f.storedInvites(t)
	require.Len(t, invites, 1)
	assert.Equal(t, "lead@x.com", invites[0].Email)

	require.Len(t, f.mailer.messages, 1)
	assert.Equal(t, []string{"lead@x.com"}, f.mailer.messages[0].To)
}

func TestSendInviteLinksRegeneratesCollidingToken(t *testing.T) {
	f := newFixture(t)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&invitedomain.Invite{
		ID:        node.Generate(),
		Token:     "tok-0001",
		OrgID:     f.org.ID,
		IsGeneric: true,
	}).Error)

	result, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
		Emails:         []string{"a@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Empty(t, result.Failed)

	var created invitedomain.Invite
	require.NoError(t, f.db.Where("email = ?", "a@x.com").First(&created).Error)
	assert.Equal(t, "tok-0002", created.Token)
	assert.Len(t, f.storedInvites(t), 2)

	// The dispatched link carries the regenerated token, not the colliding one.
	require.Len(t, f.mailer.messages, 1)
	link, ok := f.mailer.messages[0].Context["inviteLink"].(string)
	require.True(t, ok)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "tok-0002", u.Query().Get("token"))
}

func TestSendInviteLinksEmptyRecipients(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, result.Failed)
	assert.Empty(t, f.storedInvites(t))
	assert.Empty(t, f.mailer.messages)
}

func TestCreateInviteGeneratesGenericLink(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateInvite(context.Background(), f.org.ID.String())
	require.NoError(t, err)

	u, err := url.Parse(result.Link)
	require.NoError(t, err)
	assert.Equal(t, "/invite", u.Path)
	assert.NotEmpty(t, u.Query().Get("token"))
	assert.False(t, u.Query().Has("email"))
	assert.False(t, u.Query().Has("org"))

	invites := f.storedInvites(t)
	require.Len(t, invites, 1)
	assert.True(t, invites[0].IsGeneric)
	assert.Empty(t, invites[0].Email)
	assert.Equal(t, u.Query().Get("token"), invites[0].Token)

	// No notification is dispatched for a shareable link.
	assert.Empty(t, f.mailer.messages)
}

func TestCreateInviteRepeatedCallsAreIndependent(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateInvite(context.Background(), f.org.ID.String())
	require.NoError(t, err)
	second, err := f.svc.CreateInvite(context.Background(), f.org.ID.String())
	require.NoError(t, err)

	assert.NotEqual(t, first.Link, second.Link)

	invites := f.storedInvites(t)
	require.Len(t, invites, 2)
	assert.NotEqual(t, invites[0].Token, invites[1].Token)
	assert.NotEqual(t, invites[0].ID, invites[1].ID)
}

func TestCreateInviteRegeneratesCollidingToken(t *testing.T) {
	f := newFixture(t)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&invitedomain.Invite{
		ID:        node.Generate(),
		Token:     "tok-0001",
		OrgID:     f.org.ID,
		IsGeneric: true,
	}).Error)

	result, err := f.svc.CreateInvite(context.Background(), f.org.ID.String())
	require.NoError(t, err)

	u, err := url.Parse(result.Link)
	require.NoError(t, err)
	assert.Equal(t, "tok-0002", u.Query().Get("token"))
	assert.Len(t, f.storedInvites(t), 2)
}

func TestCreateInviteOrganizationMissing(t *testing.T) {
	f := newFixture(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	_, err = f.svc.CreateInvite(context.Background(), node.Generate().String())
	assert.ErrorIs(t, err, organizationdomain.ErrNotFound)
	assert.Empty(t, f.storedInvites(t))
}

func TestListInvitesReturnsPersistedSummaries(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
		Emails:         []string{"a@x.com", "b@x.com"},
	})
	require.NoError(t, err)

	summaries, err := f.svc.ListInvites(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	invites := f.storedInvites(t)
	byToken := map[string]invitedomain.Invite{}
	for _, invite := range invites {
		byToken[invite.Token] = invite
	}
	for _, summary := range summaries {
		stored, ok := byToken[summary.Token]
		require.True(t, ok)
		assert.Equal(t, stored.ID.String(), summary.ID)
		assert.Equal(t, stored.OrgID.String(), summary.OrganizationID)
		assert.Equal(t, stored.Email, summary.Email)
		assert.Equal(t, stored.IsGeneric, summary.IsGeneric)
		assert.Equal(t, stored.IsAccepted, summary.IsAccepted)
	}
}

func TestListInvitesEmptyStore(t *testing.T) {
	f := newFixture(t)

	summaries, err := f.svc.ListInvites(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

// failingRepository simulates an unavailable store.
type failingRepository struct{}

func (failingRepository) CreateInvite(ctx context.Context, invite invitedomain.Invite) error {
	return errors.New("pq: connection reset by peer")
}

func (failingRepository) ListInvites(ctx context.Context) ([]invitedomain.Invite, error) {
	return nil, errors.New("pq: connection reset by peer")
}

func TestListInvitesStoreFailureIsMasked(t *testing.T) {
	f := newFixture(t)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(
		failingRepository{},
		organizationrepository.NewRepository(f.db),
		f.mailer,
		node,
		newSequenceTokens(),
		config.Config{FrontendBaseURL: "https://app.example.com"},
	)

	_, err = svc.ListInvites(context.Background())
	assert.ErrorIs(t, err, invitedomain.ErrStoreFailure)
	assert.False(t, strings.Contains(err.Error(), "pq:"))
}

func TestSendInviteLinksPersistFailureIsPerRecipient(t *testing.T) {
	f := newFixture(t)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(
		failingRepository{},
		organizationrepository.NewRepository(f.db),
		f.mailer,
		node,
		newSequenceTokens(),
		config.Config{FrontendBaseURL: "https://app.example.com"},
	)

	result, err := svc.SendInviteLinks(context.Background(), invitedomain.SendInviteLinksRequest{
		OrganizationID: f.org.ID.String(),
		Emails:         []string{"a@x.com", "b@x.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Sent)
	assert.Len(t, result.Failed, 2)
	// Nothing was persisted, so nothing is dispatched.
	assert.Empty(t, f.mailer.messages)
}
