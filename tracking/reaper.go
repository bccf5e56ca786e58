package tracking

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fairmart/viewtrack/models"
	"github.com/fairmart/viewtrack/utils"
)

// Reaper deletes view events (and their dedup marks) older than the
// retention horizon. Deletes run in bounded batches so a large backlog never
// holds long row locks against the ingestion path. A failed sweep is not an
// incident; the next cycle retries.
type Reaper struct {
	db      *gorm.DB
	horizon time.Duration
	batch   int
	nowFunc func() time.Time
}

// NewReaper builds a reaper with the given horizon (90 days default when
// zero or negative).
func NewReaper(db *gorm.DB, horizon time.Duration) *Reaper {
	if horizon <= 0 {
		horizon = 90 * 24 * time.Hour
	}
	return &Reaper{db: db, horizon: horizon, batch: 500, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// ReapReport summarizes one sweep.
type ReapReport struct {
	EventsDeleted int64     `json:"events_deleted"`
	MarksDeleted  int64     `json:"marks_deleted"`
	HorizonDays   int       `json:"horizon_days"`
	RanAt         time.Time `json:"ran_at"`
}

// Run sweeps all expired rows, batch by batch, until none remain or the
// context is cancelled.
func (r *Reaper) Run(ctx context.Context) (ReapReport, error) {
	now := r.nowFunc()
	cutoff := now.Add(-r.horizon)
	report := ReapReport{HorizonDays: int(r.horizon / (24 * time.Hour)), RanAt: now}

	n, err := r.sweep(ctx, &models.ViewEvent{}, cutoff)
	report.EventsDeleted = n
	if err != nil {
		return report, err
	}

	// Marks only matter inside the dedup window; anything past the
	// retention cutoff is long dead.
	n, err = r.sweep(ctx, &models.ViewMark{}, cutoff)
	report.MarksDeleted = n
	if err != nil {
		return report, err
	}

	if utils.Sugar != nil && (report.EventsDeleted > 0 || report.MarksDeleted > 0) {
		utils.Sugar.Infof("reaper swept events=%d marks=%d horizon=%dd",
			report.EventsDeleted, report.MarksDeleted, report.HorizonDays)
	}
	return report, nil
}

// RunWithHorizon runs one sweep with an operator-supplied horizon override.
func (r *Reaper) RunWithHorizon(ctx context.Context, horizon time.Duration) (ReapReport, error) {
	if horizon <= 0 {
		return r.Run(ctx)
	}
	override := &Reaper{db: r.db, horizon: horizon, batch: r.batch, nowFunc: r.nowFunc}
	return override.Run(ctx)
}

func (r *Reaper) sweep(ctx context.Context, model interface{}, cutoff time.Time) (int64, error) {
	var deleted int64
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		res := r.db.WithContext(ctx).
			Where("created_at < ?", cutoff).
			Limit(r.batch).
			Delete(model)
		if res.Error != nil {
			return deleted, errors.Join(ErrStoreUnavailable, res.Error)
		}
		deleted += res.RowsAffected
		if res.RowsAffected < int64(r.batch) {
			return deleted, nil
		}
	}
}
