package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrConstraint is returned when an insert collides with a uniqueness or
// exclusion constraint, i.e. another writer claimed the same logical key.
var ErrConstraint = errors.New("constraint violation")

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// translateWriteError maps driver specific constraint failures onto ErrConstraint.
func translateWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation || pgErr.Code == pgExclusionViolation
	}
	// sqlite reports constraint failures only through the message text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
