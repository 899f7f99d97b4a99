package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salon-booking-backend/internal/model"
)

// Store is the transactional persistence used by the reservation engine.
// Lookups return (nil, nil) when the row does not exist.
type Store interface {
	// Transaction runs fn in a database transaction. fn must do all of its
	// work through the Store it receives.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// BestEffort runs fn inside a savepoint of the current transaction. A
	// failure rolls back only the savepoint and is returned for logging.
	BestEffort(ctx context.Context, fn func(tx Store) error) error

	LockStaff(ctx context.Context, id string) (*model.Staff, error)
	GetStaff(ctx context.Context, id string) (*model.Staff, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
	GetService(ctx context.Context, id string) (*model.Service, error)
	ListServices(ctx context.Context) ([]model.Service, error)

	GetHold(ctx context.Context, id string) (*model.Hold, error)
	FindHoldBySlot(ctx context.Context, staffID string, slotStart time.Time) (*model.Hold, error)
	FindHoldsBySession(ctx context.Context, sessionID string) ([]model.Hold, error)
	FindHoldsMatching(ctx context.Context, sessionID, staffID, serviceID string, slotStart time.Time) ([]model.Hold, error)
	FindExpiredHolds(ctx context.Context, now time.Time) ([]model.Hold, error)
	CreateHold(ctx context.Context, h *model.Hold) error
	DeleteHold(ctx context.Context, id string) (int64, error)
	DeleteExpiredHold(ctx context.Context, id string, now time.Time) (int64, error)

	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	FindBookingsAt(ctx context.Context, staffID string, slotStart time.Time) ([]model.Booking, error)
	FindOverlappingBookings(ctx context.Context, staffID string, start, end time.Time) ([]model.Booking, error)
	CreateBooking(ctx context.Context, b *model.Booking) error

	CreateHoldAnalytics(ctx context.Context, rec *model.HoldAnalytics) error
	MarkHoldAnalyticsConverted(ctx context.Context, sessionID, staffID, serviceID string) (int64, error)
	MarkHoldAnalyticsExpired(ctx context.Context, sessionID, staffID, serviceID string, at time.Time) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// BestEffort relies on GORM turning a nested Transaction into SAVEPOINT /
// ROLLBACK TO SAVEPOINT when s already wraps a transaction.
func (s *gormStore) BestEffort(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// LockStaff loads the staff row with FOR UPDATE so that every reservation
// write for that staff member is serialized behind the lock. SQLite has no
// row locks; its single writer already serializes transactions.
func (s *gormStore) LockStaff(ctx context.Context, id string) (*model.Staff, error) {
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var st model.Staff
	if err := q.Where("id = ?", id).Take(&st).Error; err != nil {
		return nil, notFoundAsNil("lock staff", err)
	}
	return &st, nil
}

func (s *gormStore) GetStaff(ctx context.Context, id string) (*model.Staff, error) {
	var st model.Staff
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&st).Error; err != nil {
		return nil, notFoundAsNil("get staff", err)
	}
	return &st, nil
}

func (s *gormStore) ListStaff(ctx context.Context) ([]model.Staff, error) {
	var staff []model.Staff
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

func (s *gormStore) GetService(ctx context.Context, id string) (*model.Service, error) {
	var svc model.Service
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&svc).Error; err != nil {
		return nil, notFoundAsNil("get service", err)
	}
	return &svc, nil
}

func (s *gormStore) ListServices(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// --- Holds ---

func (s *gormStore) GetHold(ctx context.Context, id string) (*model.Hold, error) {
	var h model.Hold
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&h).Error; err != nil {
		return nil, notFoundAsNil("get hold", err)
	}
	return &h, nil
}

// FindHoldBySlot returns the hold row for (staff, slot start) regardless of
// whether its lease has elapsed; callers decide how to treat expired rows.
func (s *gormStore) FindHoldBySlot(ctx context.Context, staffID string, slotStart time.Time) (*model.Hold, error) {
	var h model.Hold
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND slot_start = ?", staffID, slotStart.UTC()).
		Take(&h).Error
	if err != nil {
		return nil, notFoundAsNil("find hold by slot", err)
	}
	return &h, nil
}

func (s *gormStore) FindHoldsBySession(ctx context.Context, sessionID string) ([]model.Hold, error) {
	var holds []model.Hold
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("find holds by session: %w", err)
	}
	return holds, nil
}

func (s *gormStore) FindHoldsMatching(ctx context.Context, sessionID, staffID, serviceID string, slotStart time.Time) ([]model.Hold, error) {
	var holds []model.Hold
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND staff_id = ? AND service_id = ? AND slot_start = ?",
			sessionID, staffID, serviceID, slotStart.UTC()).
		Find(&holds).Error
	if err != nil {
		return nil, fmt.Errorf("find matching holds: %w", err)
	}
	return holds, nil
}

func (s *gormStore) FindExpiredHolds(ctx context.Context, now time.Time) ([]model.Hold, error) {
	var holds []model.Hold
	err := s.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Order("expires_at").
		Find(&holds).Error
	if err != nil {
		return nil, fmt.Errorf("find expired holds: %w", err)
	}
	return holds, nil
}

func (s *gormStore) CreateHold(ctx context.Context, h *model.Hold) error {
	return translateWriteError("create hold", s.db.WithContext(ctx).Create(h).Error)
}

// DeleteHold reports how many rows were removed; zero means another writer
// already ended the hold.
func (s *gormStore) DeleteHold(ctx context.Context, id string) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Hold{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete hold %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteExpiredHold removes the hold only if its lease has elapsed at now,
// so a renewed or converted hold is never reclaimed by a stale timer.
func (s *gormStore) DeleteExpiredHold(ctx context.Context, id string, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND expires_at <= ?", id, now.UTC()).
		Delete(&model.Hold{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired hold %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// --- Bookings ---

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, notFoundAsNil("get booking", err)
	}
	return &b, nil
}

func (s *gormStore) FindBookingsAt(ctx context.Context, staffID string, slotStart time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND slot_start = ? AND status <> ?", staffID, slotStart.UTC(), model.BookingStatusCancelled).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("find bookings at slot: %w", err)
	}
	return bookings, nil
}

// FindOverlappingBookings returns non-cancelled bookings of the staff member
// whose [slot_start, slot_end) intersects [start, end).
func (s *gormStore) FindOverlappingBookings(ctx context.Context, staffID string, start, end time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND status <> ?", staffID, model.BookingStatusCancelled).
		Where("slot_start < ? AND slot_end > ?", end.UTC(), start.UTC()).
		Order("slot_start").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	return translateWriteError("create booking", s.db.WithContext(ctx).Create(b).Error)
}

// --- Hold analytics ---

func (s *gormStore) CreateHoldAnalytics(ctx context.Context, rec *model.HoldAnalytics) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create hold analytics: %w", err)
	}
	return nil
}

func (s *gormStore) MarkHoldAnalyticsConverted(ctx context.Context, sessionID, staffID, serviceID string) (int64, error) {
	res := s.openAnalytics(ctx, sessionID, staffID, serviceID).Update("converted", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark hold analytics converted: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) MarkHoldAnalyticsExpired(ctx context.Context, sessionID, staffID, serviceID string, at time.Time) (int64, error) {
	res := s.openAnalytics(ctx, sessionID, staffID, serviceID).Update("expired_at", at.UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("mark hold analytics expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) openAnalytics(ctx context.Context, sessionID, staffID, serviceID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&model.HoldAnalytics{}).
		Where("session_id = ? AND staff_id = ? AND service_id = ?", sessionID, staffID, serviceID).
		Where("converted = ? AND expired_at IS NULL", false)
}

func notFoundAsNil(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
