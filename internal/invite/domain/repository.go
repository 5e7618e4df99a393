package domain

import "context"

type Repository interface {
	CreateInvite(ctx context.Context, invite Invite) error
	ListInvites(ctx context.Context) ([]Invite, error)
}
