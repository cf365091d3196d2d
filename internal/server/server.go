package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stagecast/encore/internal/account"
	accountdomain "github.com/stagecast/encore/internal/account/domain"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/fetcher"
	"github.com/stagecast/encore/internal/notification"
	notificationdomain "github.com/stagecast/encore/internal/notification/domain"
	"github.com/stagecast/encore/internal/observability"
	obsmiddleware "github.com/stagecast/encore/internal/observability/logger"
	obsmetrics "github.com/stagecast/encore/internal/observability/metrics"
	obstracing "github.com/stagecast/encore/internal/observability/tracing"
	"github.com/stagecast/encore/internal/ratelimit"
	"github.com/stagecast/encore/internal/refresh"
	refreshdomain "github.com/stagecast/encore/internal/refresh/domain"
	"github.com/stagecast/encore/internal/refresh/worker"
	"github.com/stagecast/encore/internal/roster"
	rosterdomain "github.com/stagecast/encore/internal/roster/domain"
	"github.com/stagecast/encore/internal/snapshot"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	roster.Module,
	account.Module,
	snapshot.Module,
	fetcher.Module,
	ratelimit.Module,
	refresh.Module,
	worker.Module,
	notification.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
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
	rosterSvc       rosterdomain.Service
	accountSvc      accountdomain.Service
	refreshSvc      refreshdomain.Service
	notificationSvc notificationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	RosterSvc       rosterdomain.Service
	AccountSvc      accountdomain.Service
	RefreshSvc      refreshdomain.Service
	NotificationSvc notificationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		rosterSvc:       p.RosterSvc,
		accountSvc:      p.AccountSvc,
		refreshSvc:      p.RefreshSvc,
		notificationSvc: p.NotificationSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")

	// -------- Profiles --------
	api.GET("/profiles", s.ListProfiles)
	api.POST("/profiles", s.CreateProfile)
	api.GET("/profiles/:id", s.GetProfileByID)

	// -------- Linked accounts --------
	api.GET("/profiles/:id/accounts", s.ListLinkedAccounts)
	api.POST("/profiles/:id/accounts", s.LinkAccount)
	api.DELETE("/profiles/:id/accounts/:platform", s.UnlinkAccount)

	// -------- Metrics --------
	api.GET("/profiles/:id/metrics", s.GetProfileMetrics)

	// -------- Notifications --------
	api.GET("/profiles/:id/notifications", s.ListNotifications)
	api.POST("/profiles/:id/notifications/read-all", s.MarkAllNotificationsRead)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)
	api.POST("/notifications/:id/dismiss", s.DismissNotification)
}
