package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "noop"))

	err := classify(gorm.ErrRecordNotFound, "failed to get pose %s", "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "abc")

	unique := fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_poses_slug"})
	err = classify(unique, "failed to create pose")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "idx_poses_slug")

	other := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
	err = classify(other, "failed to create asset")
	assert.False(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}
