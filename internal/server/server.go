package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/teamgate/internal/config"
	"github.com/smallbiznis/teamgate/internal/invite"
	invitedomain "github.com/smallbiznis/teamgate/internal/invite/domain"
	"github.com/smallbiznis/teamgate/internal/organization"
	organizationdomain "github.com/smallbiznis/teamgate/internal/organization/domain"
	"github.com/smallbiznis/teamgate/internal/providers/email"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	email.Module,
	organization.Module,
	invite.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, s *Server) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	organizationSvc organizationdomain.Service
	inviteSvc       invitedomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	OrganizationSvc organizationdomain.Service
	InviteSvc       invitedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		organizationSvc: p.OrganizationSvc,
		inviteSvc:       p.InviteSvc,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	orgs := s.engine.Group("/organizations")
	{
		orgs.POST("", s.CreateOrganization)
		orgs.GET("/:org_id", s.GetOrganization)

		// -------- Invites --------
		orgs.POST("/:org_id/invites", s.SendInviteLinks)
		orgs.POST("/:org_id/invites/link", s.CreateInviteLink)
	}

	s.engine.GET("/invites", s.ListInvites)
}
