package model

import "time"

// Service is an entry of the salon menu. Its duration determines how long a
// booking occupies the staff member.
type Service struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	Name            string    `gorm:"size:256;not null" json:"name"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	PriceCents      int64     `gorm:"not null" json:"price_cents"`
	Active          bool      `gorm:"not null" json:"active"`
	CreatedAt       time.Time `gorm:"not null" json:"-"`
	UpdatedAt       time.Time `gorm:"not null" json:"-"`
}

// Duration returns the service length as a time.Duration.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
