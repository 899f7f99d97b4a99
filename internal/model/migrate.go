package model

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the reservation engine uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Staff{},
		&Service{},
		&Hold{},
		&Booking{},
		&HoldAnalytics{},
	)
}
