package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fairmart/viewtrack/middleware"
	"github.com/fairmart/viewtrack/tracking"
	"github.com/fairmart/viewtrack/utils"
)

// recordTimeout bounds the store round-trip on the request path. View
// tracking is best-effort telemetry; a slow store must not stall callers.
const recordTimeout = 2 * time.Second

// TrackController handles the view ingestion endpoint.
type TrackController struct {
	recorder *tracking.Recorder
}

// NewTrackController creates a new controller instance.
func NewTrackController(recorder *tracking.Recorder) *TrackController {
	return &TrackController{recorder: recorder}
}

type trackRequest struct {
	ListingID   *uint  `json:"listing_id"`
	AnonymousID string `json:"anonymous_id" binding:"max=255"`
	Referrer    string `json:"referrer" binding:"max=512"`
}

// RecordView records one view of a vendor (or of one of its listings).
// POST /api/v1/vendors/:id/views
func (t *TrackController) RecordView(ctx *gin.Context) {
	vendorID, ok := parseVendorID(ctx)
	if !ok {
		return
	}

	var req trackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid request body")
		return
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = ctx.Request.Referer()
	}

	info := tracking.RequestInfo{
		ViewerID:     middleware.UserID(ctx),
		AnonymousID:  req.AnonymousID,
		SessionToken: middleware.SessionToken(ctx),
		ClientIP:     ctx.ClientIP(),
		UserAgent:    ctx.Request.UserAgent(),
		Referrer:     referrer,
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), recordTimeout)
	defer cancel()

	result, err := t.recorder.RecordView(cctx, vendorID, req.ListingID, info)
	switch {
	case err == nil:
		utils.Success(ctx, result)
	case errors.Is(err, tracking.ErrVendorNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "vendor not found")
	case errors.Is(err, tracking.ErrListingNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, "listing not found")
	case errors.Is(err, tracking.ErrInvalidArgument):
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid vendor id")
	default:
		// Transient store trouble. The endpoint answers 503 but callers are
		// expected to treat this as lost telemetry, not a failed action.
		if utils.Sugar != nil {
			utils.Sugar.Warnf("record view failed vendor=%d err=%v", vendorID, err)
		}
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "view tracking temporarily unavailable")
	}
}

// parseVendorID reads the :id path parameter, answering 400 on garbage.
func parseVendorID(ctx *gin.Context) (uint, bool) {
	raw := ctx.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid vendor id")
		return 0, false
	}
	return uint(id), true
}
