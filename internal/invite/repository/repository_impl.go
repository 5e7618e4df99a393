package repository

import (
	"context"

	"github.com/smallbiznis/teamgate/internal/invite/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateInvite(ctx context.Context, invite domain.Invite) error {
	return r.db.WithContext(ctx).Create(&invite).Error
}

func (r *repository) ListInvites(ctx context.Context) ([]domain.Invite, error) {
	var invites []domain.Invite
	if err := r.db.WithContext(ctx).Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}
