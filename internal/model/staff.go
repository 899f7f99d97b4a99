package model

import "time"

// Staff is a bookable resource of the venue (a stylist, a chair).
// WorkStart and WorkEnd are "HH:MM" in the venue time zone; WorkDays is a
// weekday list such as "mon-fri" or "tue,thu,sat" (empty means every day).
type Staff struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	WorkStart string    `gorm:"size:5;not null;default:'09:00'" json:"work_start"`
	WorkEnd   string    `gorm:"size:5;not null;default:'18:00'" json:"work_end"`
	WorkDays  string    `gorm:"size:64" json:"work_days"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

// TableName avoids the pluralized "staffs".
func (Staff) TableName() string { return "staff" }
