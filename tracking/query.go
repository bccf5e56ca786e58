package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fairmart/viewtrack/models"
	"github.com/fairmart/viewtrack/utils"
)

// Queries is the stateless read path over the event and summary stores.
// Summary reads come from the denormalized vendor columns (with a short
// redis cache in front); time series and top-viewer reads need per-day or
// per-identity grouping and scan the event store directly.
type Queries struct {
	db           *gorm.DB
	cacheTTL     time.Duration
	rollupPeriod time.Duration
	nowFunc      func() time.Time
}

// NewQueries wires the query service. rollupPeriod is the expected cadence
// used to flag stale summaries.
func NewQueries(db *gorm.DB, cacheTTL, rollupPeriod time.Duration) *Queries {
	if rollupPeriod <= 0 {
		rollupPeriod = 24 * time.Hour
	}
	return &Queries{db: db, cacheTTL: cacheTTL, rollupPeriod: rollupPeriod, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// HistorySnapshot is the rolling counter set refreshed by each rollup.
// Daily is the unique count of the last rollup window; weekly and monthly
// are true 7-day / 30-day unique counts.
type HistorySnapshot struct {
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

// Summary is the current-counters read.
type Summary struct {
	VendorID    uint            `json:"vendor_id"`
	Total       int64           `json:"total"`
	Unique      int64           `json:"unique"`
	LastUpdated *time.Time      `json:"last_updated"`
	History     HistorySnapshot `json:"history"`
	// PendingSinceRollup is the redis counter of views recorded after the
	// last rollup; informational, zero when redis is unavailable.
	PendingSinceRollup int64 `json:"pending_since_rollup"`
	// Stale flags a summary older than two rollup cadences so dashboards
	// can surface "pending update" instead of silently showing old numbers.
	Stale bool `json:"stale"`
}

// SeriesPoint is one day of the time series, UTC day boundaries.
type SeriesPoint struct {
	Date        string `json:"date"`
	TotalViews  int64  `json:"total_views"`
	UniqueViews int64  `json:"unique_views"`
}

// TimeSeries is the day-bucketed read plus its aggregate fields.
type TimeSeries struct {
	Days           int           `json:"days"`
	Series         []SeriesPoint `json:"series"`
	SumTotal       int64         `json:"sum_total"`
	SumUnique      int64         `json:"sum_unique"`
	AvgDailyUnique float64       `json:"avg_daily_unique"`
}

// TopViewer is one ranked identity with directory enrichment. DisplayName
// degrades to "unknown" when the directory lookup misses; the query itself
// never fails on enrichment.
type TopViewer struct {
	Rank             int       `json:"rank"`
	Identity         string    `json:"identity"`
	IdentityKind     string    `json:"identity_kind"`
	ViewCount        int64     `json:"view_count"`
	DistinctListings int64     `json:"distinct_listings"`
	LastViewed       time.Time `json:"last_viewed"`
	DisplayName      string    `json:"display_name"`
	Email            string    `json:"email,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
}

// GetSummary returns the current counters for a vendor. O(1): cached JSON
// or a single vendor row read.
func (q *Queries) GetSummary(ctx context.Context, vendorID uint) (*Summary, error) {
	key := SummaryCacheKey(vendorID)
	if b, ok := utils.CacheGetBytes(key); ok {
		var s Summary
		if err := json.Unmarshal(b, &s); err == nil {
			return &s, nil
		}
	}

	var vendor models.Vendor
	err := q.db.WithContext(ctx).Select(
		"id", "view_total", "view_unique", "views_updated_at",
		"history_daily", "history_weekly", "history_monthly",
	).First(&vendor, vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	s := &Summary{
		VendorID:    vendor.ID,
		Total:       vendor.ViewTotal,
		Unique:      vendor.ViewUnique,
		LastUpdated: vendor.ViewsUpdatedAt,
		History: HistorySnapshot{
			Daily:   vendor.HistoryDaily,
			Weekly:  vendor.HistoryWeekly,
			Monthly: vendor.HistoryMonthly,
		},
		PendingSinceRollup: q.pendingCount(ctx, vendorID),
		Stale:              isStale(vendor.ViewsUpdatedAt, q.rollupPeriod, q.nowFunc()),
	}
	utils.CacheSetJSON(key, s, q.cacheTTL)
	return s, nil
}

// GetTimeSeries returns per-day counts for the trailing N days, oldest
// first, with zero rows filled in for days without traffic.
func (q *Queries) GetTimeSeries(ctx context.Context, vendorID uint, days int) (*TimeSeries, error) {
	if days <= 0 {
		days = 30
	}
	if err := q.vendorExists(ctx, vendorID); err != nil {
		return nil, err
	}

	now := q.nowFunc()
	from := startOfDayUTC(now).AddDate(0, 0, -(days - 1))

	type dayRow struct {
		Day    string
		Total  int64
		Unique int64
	}
	var rows []dayRow
	err := q.db.WithContext(ctx).Model(&models.ViewEvent{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COUNT(*) AS total, COALESCE(SUM(is_unique), 0) AS `unique`").
		Where("vendor_id = ? AND created_at >= ?", vendorID, from).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	byDay := make(map[string]SeriesPoint, len(rows))
	for _, r := range rows {
		byDay[r.Day] = SeriesPoint{Date: r.Day, TotalViews: r.Total, UniqueViews: r.Unique}
	}
	series := fillSeries(from, days, byDay)

	ts := &TimeSeries{Days: days, Series: series}
	for _, p := range series {
		ts.SumTotal += p.TotalViews
		ts.SumUnique += p.UniqueViews
	}
	ts.AvgDailyUnique = float64(ts.SumUnique) / float64(days)
	return ts, nil
}

// GetTopViewers ranks identities by listing-level view count over the
// trailing window. Ties break toward the most recent last view. Directory
// enrichment is best effort.
func (q *Queries) GetTopViewers(ctx context.Context, vendorID uint, days, limit int) ([]TopViewer, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 3
	}
	if err := q.vendorExists(ctx, vendorID); err != nil {
		return nil, err
	}

	type viewerRow struct {
		Identity     string
		IdentityKind string
		Views        int64
		Listings     int64
		LastViewed   time.Time
	}
	var rows []viewerRow
	err := q.db.WithContext(ctx).Model(&models.ViewEvent{}).
		Select("identity, identity_kind, COUNT(*) AS views, COUNT(DISTINCT listing_id) AS listings, MAX(created_at) AS last_viewed").
		Where("vendor_id = ? AND listing_id IS NOT NULL AND created_at >= ?", vendorID, q.nowFunc().AddDate(0, 0, -days)).
		Group("identity, identity_kind").
		Order("views DESC, last_viewed DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	result := make([]TopViewer, 0, len(rows))
	for i, r := range rows {
		tv := TopViewer{
			Rank:             i + 1,
			Identity:         r.Identity,
			IdentityKind:     r.IdentityKind,
			ViewCount:        r.Views,
			DistinctListings: r.Listings,
			LastViewed:       r.LastViewed,
			DisplayName:      "unknown",
		}
		if userID, ok := ViewerIDFromTag(r.Identity); ok {
			q.enrichFromDirectory(ctx, userID, &tv)
		}
		result = append(result, tv)
	}
	return result, nil
}

// enrichFromDirectory attaches display metadata from the external user
// directory. Misses and errors leave the degraded defaults in place.
func (q *Queries) enrichFromDirectory(ctx context.Context, userID uint, tv *TopViewer) {
	var user models.User
	if err := q.db.WithContext(ctx).Select("id", "username", "display_name", "email", "avatar_url").
		First(&user, userID).Error; err != nil {
		return
	}
	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	if name != "" {
		tv.DisplayName = utils.Sanitize(name)
	}
	tv.Email = user.Email
	tv.AvatarURL = user.AvatarURL
}

func (q *Queries) vendorExists(ctx context.Context, vendorID uint) error {
	var n int64
	if err := q.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", vendorID).Count(&n).Error; err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if n == 0 {
		return ErrVendorNotFound
	}
	return nil
}

func (q *Queries) pendingCount(ctx context.Context, vendorID uint) int64 {
	rc := utils.GetRedis()
	if rc == nil {
		return 0
	}
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	n, err := rc.Get(cctx, RealtimeKey(vendorID)).Int64()
	if err != nil {
		return 0
	}
	return n
}

// fillSeries expands the sparse per-day map into a dense ascending slice of
// exactly `days` points starting at `from` (a UTC midnight).
func fillSeries(from time.Time, days int, byDay map[string]SeriesPoint) []SeriesPoint {
	series := make([]SeriesPoint, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format("2006-01-02")
		if p, ok := byDay[date]; ok {
			series = append(series, p)
			continue
		}
		series = append(series, SeriesPoint{Date: date})
	}
	return series
}

// isStale reports whether a summary has missed two rollup cadences.
func isStale(lastUpdated *time.Time, period time.Duration, now time.Time) bool {
	if lastUpdated == nil {
		return true
	}
	return now.Sub(*lastUpdated) > 2*period
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SummaryCacheKey is the redis key caching a vendor's summary JSON.
func SummaryCacheKey(vendorID uint) string {
	return fmt.Sprintf("analytics:summary:%d", vendorID)
}
