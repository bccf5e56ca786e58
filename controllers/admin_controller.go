package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fairmart/viewtrack/config"
	"github.com/fairmart/viewtrack/tracking"
	"github.com/fairmart/viewtrack/utils"
)

// AdminController exposes the operator triggers: run the rollup or the
// retention sweep immediately, optionally with an overridden window. Meant
// for operational recovery and testing, not regular traffic; routes sit
// behind AuthRequired + AdminRequired.
type AdminController struct {
	aggregator *tracking.Aggregator
	reaper     *tracking.Reaper
}

// NewAdminController creates a new controller instance.
func NewAdminController(aggregator *tracking.Aggregator, reaper *tracking.Reaper) *AdminController {
	return &AdminController{aggregator: aggregator, reaper: reaper}
}

type rollupRequest struct {
	WindowHours int `json:"window_hours" binding:"omitempty,min=1,max=2160"`
}

// TriggerRollup runs the aggregation immediately.
// POST /api/v1/admin/rollup
func (a *AdminController) TriggerRollup(ctx *gin.Context) {
	var req rollupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid rollup request")
		return
	}

	window := time.Duration(config.Get().RollupWindowHours) * time.Hour
	if req.WindowHours > 0 {
		window = time.Duration(req.WindowHours) * time.Hour
	}

	report, err := a.aggregator.Run(ctx.Request.Context(), window)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("manual rollup failed: %v", err)
		}
		utils.Error(ctx, http.StatusServiceUnavailable, 50304, "rollup failed")
		return
	}
	utils.Success(ctx, report)
}

type reaperRequest struct {
	HorizonDays int `json:"horizon_days" binding:"omitempty,min=1,max=3650"`
}

// TriggerReaper runs a retention sweep immediately.
// POST /api/v1/admin/reaper
func (a *AdminController) TriggerReaper(ctx *gin.Context) {
	var req reaperRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid reaper request")
		return
	}

	report, err := a.reaper.RunWithHorizon(ctx.Request.Context(), time.Duration(req.HorizonDays)*24*time.Hour)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("manual reaper sweep failed: %v", err)
		}
		utils.Error(ctx, http.StatusServiceUnavailable, 50305, "reaper sweep failed")
		return
	}
	utils.Success(ctx, report)
}

// isAdminUser reports whether the username belongs to a configured operator.
func isAdminUser(username string) bool {
	if username == "" {
		return false
	}
	for _, admin := range config.Get().AdminUsernames {
		if strings.EqualFold(admin, username) {
			return true
		}
	}
	return false
}
