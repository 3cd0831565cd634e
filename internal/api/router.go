package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/app"
	iauth "github.com/josephowusu/bizcore/internal/auth"
	"github.com/josephowusu/bizcore/internal/handlers"
	"github.com/josephowusu/bizcore/internal/middleware"
	"github.com/josephowusu/bizcore/internal/realtime"
	"github.com/josephowusu/bizcore/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers core routes.
func NewRouter(
	cfg *app.Config,
	catalog *gorm.DB,
	sessions *iauth.SessionService,
	privileges *services.PrivilegeService,
	notifications *services.NotificationService,
	settings *services.NotificationSettingsService,
	hub *realtime.Hub,
) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog handle must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/api/state", handlers.State(catalog, time.Now()))
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	capabilityHandler, err := handlers.NewCapabilityHandler(privileges)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := handlers.NewNotificationHandler(notifications, privileges)
	if err != nil {
		return nil, err
	}
	settingsHandler, err := handlers.NewSettingsHandler(settings)
	if err != nil {
		return nil, err
	}
	liveHandler, err := handlers.NewLiveHandler(hub)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(sessions))

	api.GET("/capabilities", capabilityHandler.Get)

	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.POST("/notifications/dispatch", notificationHandler.Dispatch)

	api.GET("/notification-settings", settingsHandler.Get)
	api.PUT("/notification-settings/:flag", settingsHandler.SetFlag)

	api.GET("/live", liveHandler.Attach)

	return r, nil
}
