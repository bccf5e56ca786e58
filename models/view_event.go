package models

import "time"

// View kinds derived from the presence of a listing id on the request.
const (
	ViewKindProfile = "profile"
	ViewKindListing = "listing"
)

// Identity provenance recorded with each event.
const (
	IdentityUser    = "user"
	IdentityAnon    = "anon"
	IdentitySession = "session"
)

// ViewEvent is one recorded view attempt. Rows are append-only: created by
// the ingestion path, read by rollup and analytics queries, and deleted only
// by the retention reaper. IsUnique is decided once at write time.
type ViewEvent struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	EventID      string    `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	VendorID     uint      `gorm:"index:idx_ve_vendor_identity_ts,priority:1;not null" json:"vendor_id"`
	ListingID    *uint     `gorm:"index" json:"listing_id,omitempty"`
	ViewerID     *uint     `json:"viewer_id,omitempty"`
	Identity     string    `gorm:"size:80;index:idx_ve_vendor_identity_ts,priority:2;not null" json:"identity"`
	IdentityKind string    `gorm:"size:16;not null" json:"identity_kind"`
	ViewKind     string    `gorm:"size:16;not null" json:"view_kind"`
	IsUnique     bool      `gorm:"not null" json:"is_unique"`
	ClientIP     string    `gorm:"size:45" json:"client_ip"`
	UserAgent    string    `gorm:"size:512" json:"user_agent"`
	Referrer     string    `gorm:"size:512" json:"referrer"`
	GeoCountry   string    `gorm:"size:64" json:"geo_country,omitempty"`
	CreatedAt    time.Time `gorm:"index;index:idx_ve_vendor_identity_ts,priority:3" json:"created_at"`
}

// ViewMark is the durable dedup marker: one row per claimed uniqueness slot.
// Bucket is the window-aligned bucket of the view that claimed it; the
// composite unique index makes the insert itself the decision, so two
// concurrent requests cannot both be marked unique.
type ViewMark struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	VendorID  uint      `gorm:"uniqueIndex:idx_vm_vendor_identity_bucket,priority:1;not null" json:"vendor_id"`
	Identity  string    `gorm:"size:80;uniqueIndex:idx_vm_vendor_identity_bucket,priority:2;not null" json:"identity"`
	Bucket    int64     `gorm:"uniqueIndex:idx_vm_vendor_identity_bucket,priority:3;not null" json:"bucket"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
