package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairmart/viewtrack/models"
	"github.com/fairmart/viewtrack/utils"
)

// RequestInfo carries the ambient request metadata the HTTP layer extracts
// for an ingestion call. None of it participates in dedup; the client IP is
// informational and feeds the optional geo annotation only.
type RequestInfo struct {
	ViewerID     *uint
	AnonymousID  string
	SessionToken string
	ClientIP     string
	UserAgent    string
	Referrer     string
}

// Result reports the outcome of a recorded view.
type Result struct {
	Accepted bool   `json:"accepted"`
	IsUnique bool   `json:"is_unique"`
	EventID  string `json:"event_id,omitempty"`
}

// Recorder is the ingestion gateway: it validates the target, resolves the
// viewer identity, runs the dedup guard and appends exactly one ViewEvent
// per accepted call, duplicates included.
type Recorder struct {
	db      *gorm.DB
	guard   *DedupGuard
	geoOn   bool
	nowFunc func() time.Time
}

// NewRecorder wires the gateway. geoEnabled turns on the best-effort country
// annotation, which runs after the row is written and never affects the call.
func NewRecorder(db *gorm.DB, guard *DedupGuard, geoEnabled bool) *Recorder {
	return &Recorder{db: db, guard: guard, geoOn: geoEnabled, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// RecordView persists one view attempt. Error cases: ErrVendorNotFound /
// ErrListingNotFound when the target does not exist (nothing is written),
// ErrInvalidArgument for a zero vendor id, and ErrStoreUnavailable wrapping
// any store failure. Callers on the request path treat the last one as
// non-fatal telemetry loss.
func (r *Recorder) RecordView(ctx context.Context, vendorID uint, listingID *uint, info RequestInfo) (Result, error) {
	if vendorID == 0 {
		return Result{}, ErrInvalidArgument
	}
	if err := r.checkTarget(ctx, vendorID, listingID); err != nil {
		return Result{}, err
	}

	identity := ResolveIdentity(info.ViewerID, info.AnonymousID, info.SessionToken)

	unique, err := r.guard.Claim(ctx, vendorID, identity.Tag)
	if err != nil {
		return Result{}, err
	}

	now := r.nowFunc()
	event := models.ViewEvent{
		EventID:      uuid.NewString(),
		VendorID:     vendorID,
		ListingID:    normalizeListingID(listingID),
		ViewerID:     info.ViewerID,
		Identity:     identity.Tag,
		IdentityKind: identity.Kind,
		ViewKind:     viewKindFor(listingID),
		IsUnique:     unique,
		ClientIP:     info.ClientIP,
		UserAgent:    truncate(info.UserAgent, 512),
		Referrer:     truncate(info.Referrer, 512),
		CreatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		// The claim succeeded but no unique event exists; free the slot so
		// the pair does not undercount until the window lapses.
		if unique {
			r.guard.Release(vendorID, identity.Tag)
		}
		return Result{}, errors.Join(ErrStoreUnavailable, err)
	}

	r.bumpRealtime(ctx, vendorID)
	if r.geoOn {
		go r.annotateGeo(event.ID, info.ClientIP)
	}

	return Result{Accepted: true, IsUnique: unique, EventID: event.EventID}, nil
}

// checkTarget verifies the vendor (and listing, when named) exists. Uses
// lightweight id selects; soft-deleted rows do not count.
func (r *Recorder) checkTarget(ctx context.Context, vendorID uint, listingID *uint) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", vendorID).Count(&n).Error; err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if n == 0 {
		return ErrVendorNotFound
	}
	if listingID != nil && *listingID > 0 {
		if err := r.db.WithContext(ctx).Model(&models.Listing{}).
			Where("id = ? AND vendor_id = ?", *listingID, vendorID).Count(&n).Error; err != nil {
			return errors.Join(ErrStoreUnavailable, err)
		}
		if n == 0 {
			return ErrListingNotFound
		}
	}
	return nil
}

// bumpRealtime increments the per-vendor counter of views seen since the
// last rollup. Informational only; reset by the aggregator.
func (r *Recorder) bumpRealtime(ctx context.Context, vendorID uint) {
	rc := utils.GetRedis()
	if rc == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := rc.Incr(cctx, RealtimeKey(vendorID)).Err(); err != nil && utils.Sugar != nil {
		utils.Sugar.Debugf("realtime counter incr failed vendor=%d err=%v", vendorID, err)
	}
}

// annotateGeo resolves the client country and backfills the event row.
// Detached from the request lifecycle; failure just leaves the column empty.
func (r *Recorder) annotateGeo(eventRowID uint, clientIP string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	country, err := utils.GetIPCountry(ctx, clientIP)
	if err != nil || country == "" {
		return
	}
	if err := r.db.WithContext(ctx).Model(&models.ViewEvent{}).
		Where("id = ?", eventRowID).
		Update("geo_country", country).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Debugf("geo annotation failed event=%d err=%v", eventRowID, err)
	}
}

// RealtimeKey is the redis key of the pending-view counter for a vendor.
func RealtimeKey(vendorID uint) string {
	return fmt.Sprintf("views:rt:%d", vendorID)
}

func normalizeListingID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
