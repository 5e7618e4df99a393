package migration

import (
	"github.com/smallbiznis/teamgate/internal/config"
	invitedomain "github.com/smallbiznis/teamgate/internal/invite/domain"
	organizationdomain "github.com/smallbiznis/teamgate/internal/organization/domain"
	"github.com/smallbiznis/teamgate/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite are dev conveniences; let gorm build the schema.
			if err := conn.AutoMigrate(
				&organizationdomain.Organization{},
				&invitedomain.Invite{},
			); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureDefaultOrgWithID(conn, cfg.DefaultOrgID)
		}
		return seed.EnsureDefaultOrg(conn)
	}),
)
