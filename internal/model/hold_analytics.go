package model

import "time"

// HoldAnalytics is an audit row for one hold. It is open while the hold is
// active (Converted false, ExpiredAt nil) and closed by conversion or expiry.
type HoldAnalytics struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	SessionID string     `gorm:"size:128;not null;index:idx_hold_analytics_triple,priority:1"`
	StaffID   string     `gorm:"size:64;not null;index:idx_hold_analytics_triple,priority:2"`
	ServiceID string     `gorm:"size:64;not null;index:idx_hold_analytics_triple,priority:3"`
	HeldAt    time.Time  `gorm:"not null"`
	ExpiredAt *time.Time
	Converted bool `gorm:"not null;default:false"`
}

// TableName pins the table name so it reads as a log rather than a plural.
func (HoldAnalytics) TableName() string { return "hold_analytics" }
