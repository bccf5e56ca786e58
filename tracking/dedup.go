package tracking

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fairmart/viewtrack/models"
	"github.com/fairmart/viewtrack/utils"
)

// DedupGuard decides, atomically, whether a view is the first for its
// (vendor, identity) pair inside the trailing window. The durable authority
// is always the view_marks insert guarded by the composite unique index;
// redis SET NX acts only as a fast short-circuit for already-claimed pairs,
// so a redis restart or eviction inside the window cannot mint a second
// unique view. Client IP is deliberately not part of the key; shared NAT
// would suppress legitimate distinct views.
type DedupGuard struct {
	db      *gorm.DB
	window  time.Duration
	nowFunc func() time.Time
}

// NewDedupGuard builds a guard with the given trailing window (24h default
// when zero or negative).
func NewDedupGuard(db *gorm.DB, window time.Duration) *DedupGuard {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &DedupGuard{db: db, window: window, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Window reports the configured trailing window.
func (g *DedupGuard) Window() time.Duration { return g.window }

// Claim attempts to take the uniqueness slot for the pair. It returns true
// when this view is the unique one for the current window. A redis-held key
// answers "duplicate" without touching the store; every positive claim is
// persisted as a mark so the decision survives redis.
func (g *DedupGuard) Claim(ctx context.Context, vendorID uint, identity string) (bool, error) {
	if g.heldInRedis(ctx, vendorID, identity) {
		return false, nil
	}
	unique, err := g.claimDB(ctx, vendorID, identity)
	if err != nil {
		// Don't strand the fast-path key on a store failure; the next view
		// must be able to retry the claim.
		g.releaseRedis(vendorID, identity)
		return false, err
	}
	return unique, nil
}

// Release frees a previously successful claim so the next view for the pair
// can count as unique again. Used when the event write fails after the claim
// succeeded; runs on its own deadline because the request context may
// already be dead by then.
func (g *DedupGuard) Release(vendorID uint, identity string) {
	g.releaseRedis(vendorID, identity)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cutoff := g.nowFunc().Add(-g.window)
	if err := g.db.WithContext(ctx).
		Where("vendor_id = ? AND identity = ? AND created_at >= ?", vendorID, identity, cutoff).
		Delete(&models.ViewMark{}).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("dedup release failed vendor=%d identity=%s err=%v", vendorID, identity, err)
	}
}

// heldInRedis reports whether the pair's window key is already taken. SET NX
// with the window as TTL both answers and claims in one round trip; a
// redis error or miss means the DB must rule, and a fresh key is harmless
// because the mark insert below stays authoritative.
func (g *DedupGuard) heldInRedis(ctx context.Context, vendorID uint, identity string) bool {
	rc := utils.GetRedis()
	if rc == nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	ok, err := rc.SetNX(cctx, dedupKey(vendorID, identity), "1", g.window).Result()
	if err != nil {
		return false
	}
	return !ok
}

func (g *DedupGuard) releaseRedis(vendorID uint, identity string) {
	rc := utils.GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = rc.Del(ctx, dedupKey(vendorID, identity)).Err()
}

// claimDB first short-circuits on any mark inside the trailing window, then
// lets the unique index on (vendor_id, identity, bucket) arbitrate races:
// zero rows affected by the conflict-ignoring insert means another request
// already claimed this bucket. Buckets are window-sized, so concurrent
// claims collide unless they straddle a bucket boundary; the trailing count
// above has already ruled out everything committed before that edge case.
func (g *DedupGuard) claimDB(ctx context.Context, vendorID uint, identity string) (bool, error) {
	now := g.nowFunc()
	cutoff := now.Add(-g.window)

	var n int64
	err := g.db.WithContext(ctx).Model(&models.ViewMark{}).
		Where("vendor_id = ? AND identity = ? AND created_at >= ?", vendorID, identity, cutoff).
		Count(&n).Error
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	if n > 0 {
		return false, nil
	}

	mark := models.ViewMark{
		VendorID:  vendorID,
		Identity:  identity,
		Bucket:    bucketFor(now, g.window),
		CreatedAt: now,
	}
	res := g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&mark)
	if res.Error != nil {
		return false, errors.Join(ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// bucketFor maps a timestamp to its window-aligned bucket so concurrent
// claims inside one window land on the same unique-index key.
func bucketFor(t time.Time, window time.Duration) int64 {
	return t.UTC().Unix() / int64(window/time.Second)
}
