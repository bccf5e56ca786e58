package models

import (
	"time"

	"gorm.io/gorm"
)

// Vendor is the viewed marketplace entity. The record itself is owned by the
// marketplace backend; this service only maintains the denormalized view
// summary columns, which are overwritten in full by every rollup run.
type Vendor struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerUserID uint           `gorm:"index;not null" json:"owner_user_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// View summary, refreshed by the rollup aggregator.
	ViewTotal      int64      `gorm:"not null;default:0" json:"view_total"`
	ViewUnique     int64      `gorm:"not null;default:0" json:"view_unique"`
	ViewsUpdatedAt *time.Time `json:"views_updated_at"`
	HistoryDaily   int64      `gorm:"not null;default:0" json:"history_daily"`
	HistoryWeekly  int64      `gorm:"not null;default:0" json:"history_weekly"`
	HistoryMonthly int64      `gorm:"not null;default:0" json:"history_monthly"`
}

// Listing is a vendor sub-entity. A view request that names a listing is a
// listing-level view; without one it counts as a profile-level view.
type Listing struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	VendorID  uint           `gorm:"index;not null" json:"vendor_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
