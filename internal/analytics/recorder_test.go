package analytics

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"salon-booking-backend/config"
	"salon-booking-backend/internal/db"
	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

func newTestStore(t *testing.T) (store.Store, *gorm.DB) {
	name := regexp.MustCompile(`\W`).ReplaceAllString(t.Name(), "_")
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return store.NewGormStore(gormDB), gormDB
}

func TestStoreRecorder_Lifecycle(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	rec := NewStoreRecorder()
	heldAt := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)

	hold := model.Hold{SessionID: "sess-1", StaffID: "anna", ServiceID: "cut", CreatedAt: heldAt}
	other := model.Hold{SessionID: "sess-2", StaffID: "anna", ServiceID: "cut", CreatedAt: heldAt}

	require.NoError(t, s.Transaction(ctx, func(tx store.Store) error {
		if err := rec.RecordHeld(ctx, tx, hold); err != nil {
			return err
		}
		return rec.RecordHeld(ctx, tx, other)
	}))

	require.NoError(t, s.Transaction(ctx, func(tx store.Store) error {
		return rec.RecordConverted(ctx, tx, "sess-1", "anna", "cut")
	}))
	expiredAt := heldAt.Add(5 * time.Minute)
	require.NoError(t, s.Transaction(ctx, func(tx store.Store) error {
		return rec.RecordExpired(ctx, tx, "sess-2", "anna", "cut", expiredAt)
	}))

	var rows []model.HoldAnalytics
	require.NoError(t, gormDB.Order("session_id").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].Converted)
	assert.Nil(t, rows[0].ExpiredAt)
	assert.True(t, rows[0].HeldAt.Equal(heldAt))

	assert.False(t, rows[1].Converted)
	require.NotNil(t, rows[1].ExpiredAt)
	assert.True(t, rows[1].ExpiredAt.Equal(expiredAt))
}

func TestStoreRecorder_ClosedRecordIsNotReopened(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	rec := NewStoreRecorder()
	now := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Transaction(ctx, func(tx store.Store) error {
		if err := rec.RecordHeld(ctx, tx, model.Hold{SessionID: "s", StaffID: "anna", ServiceID: "cut", CreatedAt: now}); err != nil {
			return err
		}
		if err := rec.RecordExpired(ctx, tx, "s", "anna", "cut", now); err != nil {
			return err
		}
		return rec.RecordConverted(ctx, tx, "s", "anna", "cut")
	}))

	var row model.HoldAnalytics
	require.NoError(t, gormDB.First(&row).Error)
	assert.False(t, row.Converted, "an expired record stays expired")
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	ctx := context.Background()
	assert.NoError(t, r.RecordHeld(ctx, nil, model.Hold{}))
	assert.NoError(t, r.RecordConverted(ctx, nil, "s", "a", "c"))
	assert.NoError(t, r.RecordExpired(ctx, nil, "s", "a", "c", time.Now()))
}
