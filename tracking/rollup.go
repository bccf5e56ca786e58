package tracking

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fairmart/viewtrack/models"
	"github.com/fairmart/viewtrack/utils"
)

// Aggregator converts raw view events into the denormalized per-vendor
// summary. Each run is a full overwrite of the counters, so re-running with
// the same window is idempotent and concurrent duplicate runs degrade to
// last-writer-wins rather than double counting.
type Aggregator struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

// NewAggregator returns a rollup aggregator over the given store.
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// RollupReport summarizes one aggregator run.
type RollupReport struct {
	VendorsUpdated int       `json:"vendors_updated"`
	VendorsFailed  int       `json:"vendors_failed"`
	WindowHours    int       `json:"window_hours"`
	RanAt          time.Time `json:"ran_at"`
}

// bucketRow is one grouped scan result.
type bucketRow struct {
	VendorID uint
	Total    int64
	Unique   int64
}

// vendorCounts is the assembled summary for one vendor.
type vendorCounts struct {
	Total   int64
	Unique  int64
	Weekly  int64
	Monthly int64
}

// Run executes one rollup over the trailing window. A failure on one
// vendor's summary update does not abort the rest; the report carries the
// split. The error return is reserved for the scans themselves.
func (a *Aggregator) Run(ctx context.Context, window time.Duration) (RollupReport, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	now := a.nowFunc()
	report := RollupReport{WindowHours: int(window / time.Hour), RanAt: now}

	windowRows, err := a.groupSince(ctx, now.Add(-window))
	if err != nil {
		return report, errors.Join(ErrStoreUnavailable, err)
	}
	weeklyRows, err := a.groupSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return report, errors.Join(ErrStoreUnavailable, err)
	}
	monthlyRows, err := a.groupSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return report, errors.Join(ErrStoreUnavailable, err)
	}

	for vendorID, c := range mergeCounts(windowRows, weeklyRows, monthlyRows) {
		if err := a.writeSummary(ctx, vendorID, c, now); err != nil {
			report.VendorsFailed++
			if utils.Sugar != nil {
				utils.Sugar.Warnf("rollup: summary update failed vendor=%d err=%v", vendorID, err)
			}
			continue
		}
		report.VendorsUpdated++
		a.resetRealtime(ctx, vendorID)
		utils.CacheDel(SummaryCacheKey(vendorID))
	}

	if utils.Sugar != nil {
		utils.Sugar.Infof("rollup finished window=%dh updated=%d failed=%d",
			report.WindowHours, report.VendorsUpdated, report.VendorsFailed)
	}
	return report, nil
}

// groupSince returns per-vendor total and unique counts of events at or
// after the cutoff.
func (a *Aggregator) groupSince(ctx context.Context, cutoff time.Time) ([]bucketRow, error) {
	var rows []bucketRow
	err := a.db.WithContext(ctx).Model(&models.ViewEvent{}).
		Select("vendor_id, COUNT(*) AS total, COALESCE(SUM(is_unique), 0) AS `unique`").
		Where("created_at >= ?", cutoff).
		Group("vendor_id").
		Scan(&rows).Error
	return rows, err
}

// mergeCounts assembles the three scans into one summary per vendor.
// history daily carries the rollup window's unique count; weekly and
// monthly are true 7-day / 30-day unique counts. A vendor present only in
// the wider scans still gets a row so stale daily counters are zeroed.
func mergeCounts(window, weekly, monthly []bucketRow) map[uint]vendorCounts {
	out := make(map[uint]vendorCounts, len(monthly))
	for _, r := range monthly {
		c := out[r.VendorID]
		c.Monthly = r.Unique
		out[r.VendorID] = c
	}
	for _, r := range weekly {
		c := out[r.VendorID]
		c.Weekly = r.Unique
		out[r.VendorID] = c
	}
	for _, r := range window {
		c := out[r.VendorID]
		c.Total = r.Total
		c.Unique = r.Unique
		out[r.VendorID] = c
	}
	return out
}

// writeSummary overwrites one vendor's counters in place.
func (a *Aggregator) writeSummary(ctx context.Context, vendorID uint, c vendorCounts, now time.Time) error {
	res := a.db.WithContext(ctx).Model(&models.Vendor{}).
		Where("id = ?", vendorID).
		Updates(map[string]interface{}{
			"view_total":       c.Total,
			"view_unique":      c.Unique,
			"views_updated_at": now,
			"history_daily":    c.Unique,
			"history_weekly":   c.Weekly,
			"history_monthly":  c.Monthly,
		})
	return res.Error
}

// resetRealtime zeroes the pending-view counter once its events are rolled up.
func (a *Aggregator) resetRealtime(ctx context.Context, vendorID uint) {
	rc := utils.GetRedis()
	if rc == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_ = rc.Del(cctx, RealtimeKey(vendorID)).Err()
}
