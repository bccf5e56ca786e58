package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairmart/viewtrack/config"
	"github.com/fairmart/viewtrack/controllers"
	"github.com/fairmart/viewtrack/middleware"
	"github.com/fairmart/viewtrack/tracking"
	"github.com/fairmart/viewtrack/utils"
)

// Services bundles the tracking components the router exposes over HTTP.
type Services struct {
	Recorder   *tracking.Recorder
	Queries    *tracking.Queries
	Aggregator *tracking.Aggregator
	Reaper     *tracking.Reaper
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svc Services) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		status := gin.H{"status": "ok", "db": "ok", "redis": "ok"}
		code := http.StatusOK

		if sqlDB, derr := db.DB(); derr != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
			status["db"] = "down"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		if rdb := utils.GetRedis(); rdb == nil || rdb.Ping(ctx.Request.Context()).Err() != nil {
			// tracking degrades without redis but stays up, so report only
			status["redis"] = "down"
		}
		ctx.JSON(code, status)
	})

	trackController := controllers.NewTrackController(svc.Recorder)
	analyticsController := controllers.NewAnalyticsController(db, svc.Queries)
	adminController := controllers.NewAdminController(svc.Aggregator, svc.Reaper)

	api := r.Group("/api/v1")

	// Ingestion is open to anonymous traffic; auth enriches identity when present.
	track := api.Group("/vendors")
	track.Use(middleware.RateLimitMiddleware(), middleware.AuthOptional(), middleware.ViewerSession())
	track.POST("/:id/views", trackController.RecordView)

	analytics := api.Group("/vendors")
	analytics.Use(middleware.AuthRequired())
	analytics.GET("/:id/analytics/summary", analyticsController.GetSummary)
	analytics.GET("/:id/analytics/timeseries", analyticsController.GetTimeSeries)
	analytics.GET("/:id/analytics/top-viewers", analyticsController.GetTopViewers)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.POST("/rollup", adminController.TriggerRollup)
	admin.POST("/reaper", adminController.TriggerReaper)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
