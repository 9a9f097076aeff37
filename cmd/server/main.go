package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/catalog"
	"github.com/startrail/internal/config"
	"github.com/startrail/internal/db"
	"github.com/startrail/internal/logger"
	"github.com/startrail/internal/router"
	"github.com/startrail/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	zap.ReplaceGlobals(appLogger)

	if cfg.ConfigFileUsed != "" {
		appLogger.Info("loaded config file", zap.String("path", cfg.ConfigFileUsed))
	}
	if cfg.UsingDevSecret() {
		appLogger.Warn("SESSION_SECRET not set, using the development secret")
	}

	// 初始化数据库
	if err := db.Init(db.Options{Driver: cfg.Database.Driver, Path: cfg.Database.Path, DSN: cfg.Database.DSN}); err != nil {
		appLogger.Fatal("failed to initialize database", zap.Error(err))
	}

	achievements, err := catalog.Load()
	if err != nil {
		appLogger.Fatal("failed to load achievement catalog", zap.Error(err))
	}
	appLogger.Info("catalog loaded",
		zap.Int("achievements", achievements.Size()),
		zap.String("current_version", achievements.CurrentVersion()),
	)

	gin.SetMode(cfg.Gin.Mode)

	// 设置并运行 Gin 服务器
	r, err := router.SetupRouter(service.NewGormCompletionStore(db.DB), achievements, router.Options{
		SessionSecret:  cfg.Session.Secret,
		SecureCookies:  cfg.Session.Secure,
		CookieMaxAge:   cfg.Session.MaxAge,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SiteBaseURL:    cfg.Site.BaseURL,
		EnableMetrics:  cfg.Metrics.Enabled,
		Logger:         appLogger,
	})
	if err != nil {
		appLogger.Fatal("failed to set up router", zap.Error(err))
	}

	appLogger.Info("starting server", zap.String("addr", cfg.ListenAddr), zap.String("driver", cfg.Database.Driver))
	if err := r.Run(cfg.ListenAddr); err != nil {
		appLogger.Fatal("failed to run server", zap.Error(err))
	}
}
