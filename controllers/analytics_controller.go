package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairmart/viewtrack/middleware"
	"github.com/fairmart/viewtrack/models"
	"github.com/fairmart/viewtrack/tracking"
	"github.com/fairmart/viewtrack/utils"
)

// Dashboard query bounds. Raw events are retained 90 days, so wider ranges
// would silently under-count.
const (
	maxSeriesDays    = 90
	maxTopViewers    = 50
	defaultTopDays   = 7
	defaultTopLimit  = 3
	defaultSeriesLen = 30
)

// AnalyticsController serves the vendor dashboard reads. All routes require
// an authenticated caller who owns the vendor or is a platform admin.
type AnalyticsController struct {
	db      *gorm.DB
	queries *tracking.Queries
}

// NewAnalyticsController creates a new controller instance.
func NewAnalyticsController(db *gorm.DB, queries *tracking.Queries) *AnalyticsController {
	return &AnalyticsController{db: db, queries: queries}
}

// GetSummary returns the rolled-up counters for a vendor.
// GET /api/v1/vendors/:id/analytics/summary
func (a *AnalyticsController) GetSummary(ctx *gin.Context) {
	vendorID, ok := a.authorizeVendor(ctx)
	if !ok {
		return
	}
	summary, err := a.queries.GetSummary(ctx.Request.Context(), vendorID)
	if err != nil {
		a.respondQueryError(ctx, err)
		return
	}
	utils.Success(ctx, summary)
}

// GetTimeSeries returns per-day view counts over the trailing N days.
// GET /api/v1/vendors/:id/analytics/timeseries?days=30
func (a *AnalyticsController) GetTimeSeries(ctx *gin.Context) {
	vendorID, ok := a.authorizeVendor(ctx)
	if !ok {
		return
	}
	days := intQuery(ctx, "days", defaultSeriesLen)
	if days < 1 || days > maxSeriesDays {
		utils.Error(ctx, http.StatusBadRequest, 40010, "days must be between 1 and 90")
		return
	}
	series, err := a.queries.GetTimeSeries(ctx.Request.Context(), vendorID, days)
	if err != nil {
		a.respondQueryError(ctx, err)
		return
	}
	utils.Success(ctx, series)
}

// GetTopViewers returns the highest-frequency listing viewers for a vendor.
// GET /api/v1/vendors/:id/analytics/top-viewers?days=7&limit=3
func (a *AnalyticsController) GetTopViewers(ctx *gin.Context) {
	vendorID, ok := a.authorizeVendor(ctx)
	if !ok {
		return
	}
	days := intQuery(ctx, "days", defaultTopDays)
	limit := intQuery(ctx, "limit", defaultTopLimit)
	if days < 1 || days > maxSeriesDays {
		utils.Error(ctx, http.StatusBadRequest, 40011, "days must be between 1 and 90")
		return
	}
	if limit < 1 || limit > maxTopViewers {
		utils.Error(ctx, http.StatusBadRequest, 40012, "limit must be between 1 and 50")
		return
	}
	viewers, err := a.queries.GetTopViewers(ctx.Request.Context(), vendorID, days, limit)
	if err != nil {
		a.respondQueryError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"days": days, "limit": limit, "viewers": viewers})
}

// authorizeVendor parses the :id parameter and verifies the caller owns the
// vendor or is an admin. Admins see every vendor's analytics.
func (a *AnalyticsController) authorizeVendor(ctx *gin.Context) (uint, bool) {
	vendorID, ok := parseVendorID(ctx)
	if !ok {
		return 0, false
	}

	var vendor models.Vendor
	err := a.db.WithContext(ctx.Request.Context()).Select("id", "owner_user_id").First(&vendor, vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, "vendor not found")
		return 0, false
	}
	if err != nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50302, "store unavailable")
		return 0, false
	}

	callerID := middleware.UserID(ctx)
	username := ctx.GetString(middleware.ContextUsernameKey)
	if (callerID == nil || *callerID != vendor.OwnerUserID) && !isAdminUser(username) {
		utils.Error(ctx, http.StatusForbidden, 40302, "not your vendor")
		return 0, false
	}
	return vendorID, true
}

// respondQueryError maps query service errors onto the response envelope.
// Analytics reads are interactive: failures surface explicitly instead of
// returning zeroed data.
func (a *AnalyticsController) respondQueryError(ctx *gin.Context, err error) {
	if errors.Is(err, tracking.ErrVendorNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, "vendor not found")
		return
	}
	if utils.Sugar != nil {
		utils.Sugar.Warnf("analytics query failed: %v", err)
	}
	utils.Error(ctx, http.StatusServiceUnavailable, 50303, "analytics temporarily unavailable")
}

func intQuery(ctx *gin.Context, key string, def int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
