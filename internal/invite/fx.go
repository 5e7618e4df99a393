package invite

import (
	"github.com/google/uuid"
	"github.com/smallbiznis/teamgate/internal/invite/domain"
	"github.com/smallbiznis/teamgate/internal/invite/repository"
	"github.com/smallbiznis/teamgate/internal/invite/service"
	"go.uber.org/fx"
)

func newTokenGenerator() domain.TokenGenerator {
	return uuid.NewString
}

var Module = fx.Module("invite.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(newTokenGenerator),
	fx.Provide(service.NewService),
)
