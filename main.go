package main

import (
	"context"
	"time"

	"github.com/fairmart/viewtrack/config"
	"github.com/fairmart/viewtrack/models"
	"github.com/fairmart/viewtrack/routes"
	"github.com/fairmart/viewtrack/tracking"
	"github.com/fairmart/viewtrack/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.Vendor{}, &models.Listing{}, &models.User{},
		&models.ViewEvent{}, &models.ViewMark{},
	)

	guard := tracking.NewDedupGuard(db, time.Duration(cfg.DedupWindowHours)*time.Hour)
	recorder := tracking.NewRecorder(db, guard, cfg.GeoLookupEnabled)
	aggregator := tracking.NewAggregator(db)
	reaper := tracking.NewReaper(db, time.Duration(cfg.RetentionDays)*24*time.Hour)
	queries := tracking.NewQueries(db,
		time.Duration(cfg.SummaryCacheTTLSec)*time.Second,
		time.Duration(cfg.RollupIntervalHours)*time.Hour,
	)

	r := routes.SetupRouter(db, routes.Services{
		Recorder:   recorder,
		Queries:    queries,
		Aggregator: aggregator,
		Reaper:     reaper,
	})

	rollupWindow := time.Duration(cfg.RollupWindowHours) * time.Hour
	sched := tracking.NewScheduler()
	sched.Add("rollup", time.Duration(cfg.RollupIntervalHours)*time.Hour, func(ctx context.Context) {
		if _, err := aggregator.Run(ctx, rollupWindow); err != nil {
			utils.Sugar.Errorf("scheduled rollup failed: %v", err)
		}
	})
	sched.Add("reaper", time.Duration(cfg.ReaperIntervalHours)*time.Hour, func(ctx context.Context) {
		if _, err := reaper.Run(ctx); err != nil {
			utils.Sugar.Errorf("scheduled reaper sweep failed: %v", err)
		}
	})
	sched.Start()

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, sched.Stop); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
