package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/api"
	"github.com/josephowusu/bizcore/internal/app"
	"github.com/josephowusu/bizcore/internal/app/maintenance"
	iauth "github.com/josephowusu/bizcore/internal/auth"
	"github.com/josephowusu/bizcore/internal/database"
	"github.com/josephowusu/bizcore/internal/realtime"
	"github.com/josephowusu/bizcore/internal/services"
	"github.com/josephowusu/bizcore/internal/tenant"
	"github.com/josephowusu/bizcore/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	Catalog  *gorm.DB
	Tenants  *tenant.Registry
	Sessions *iauth.SessionService
	Hub      *realtime.Hub
	Sweeper  *maintenance.Sweeper
	Router   *gin.Engine

	tenantDBs []*gorm.DB
}

// bootstrapRuntime initialises databases, the tenant registry, services, and
// the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog, err := openDatabase(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	stack.Catalog = catalog

	if err := database.AutoMigrateCatalog(catalog); err != nil {
		return nil, fmt.Errorf("migrate catalog database: %w", err)
	}

	stack.Tenants, err = tenant.NewRegistry(catalog)
	if err != nil {
		return nil, err
	}

	for schema, dbCfg := range cfg.Tenants {
		db, err := openDatabase(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("open tenant %q database: %w", schema, err)
		}
		stack.tenantDBs = append(stack.tenantDBs, db)

		if err := database.AutoMigrateTenant(db); err != nil {
			return nil, fmt.Errorf("migrate tenant %q database: %w", schema, err)
		}
		if _, err := stack.Tenants.Register(schema, db); err != nil {
			return nil, err
		}
		log.Info("tenant registered",
			zap.String("schema", schema),
			zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))),
		)
	}

	stack.Sessions, err = iauth.NewSessionService(stack.Tenants, logger.WithModule("auth"), iauth.SessionConfig{})
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	subscriptionSvc, err := services.NewSubscriptionService(catalog, logger.WithModule("subscriptions"))
	if err != nil {
		return nil, fmt.Errorf("initialise subscription service: %w", err)
	}
	privilegeSvc, err := services.NewPrivilegeService(subscriptionSvc, logger.WithModule("privileges"), services.PrivilegeConfig{})
	if err != nil {
		return nil, fmt.Errorf("initialise privilege service: %w", err)
	}
	settingsSvc, err := services.NewNotificationSettingsService(logger.WithModule("settings"))
	if err != nil {
		return nil, fmt.Errorf("initialise settings service: %w", err)
	}

	stack.Hub = realtime.NewHub(logger.WithModule("realtime"))

	notificationSvc, err := services.NewNotificationService(settingsSvc, stack.Hub, logger.WithModule("notifications"), services.NotificationConfig{})
	if err != nil {
		return nil, fmt.Errorf("initialise notification service: %w", err)
	}

	if cfg.Maintenance.SessionCleanup.Enabled {
		stack.Sweeper, err = maintenance.NewSweeper(stack.Tenants, stack.Sessions,
			maintenance.WithSessionSchedule(cfg.Maintenance.SessionCleanup.Schedule))
		if err != nil {
			return nil, fmt.Errorf("initialise maintenance sweeper: %w", err)
		}
		if err := stack.Sweeper.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(cfg, catalog, stack.Sessions, privilegeSvc, notificationSvc, settingsSvc, stack.Hub)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs and closes every database connection.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}

	if s.Sweeper != nil {
		<-s.Sweeper.Stop().Done()
		if err := s.Sweeper.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown sweep failed", zap.Error(err))
		}
	}

	for _, db := range s.tenantDBs {
		closeDatabase(db, log)
	}
	closeDatabase(s.Catalog, log)
}

func openDatabase(cfg database.Config) (*gorm.DB, error) {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	return database.Open(cfg)
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
