package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	plain := errors.New("boom")

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify(nil))
	})

	t.Run("deadline becomes unavailable", func(t *testing.T) {
		err := Classify(fmt.Errorf("query: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("already classified is not wrapped twice", func(t *testing.T) {
		first := Classify(context.Canceled)
		assert.Equal(t, first, Classify(first))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		assert.Equal(t, plain, Classify(plain))
	})
}

func TestIsConstraintViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "uk_open_shift"})

	assert.True(t, IsConstraintViolation(err, CodeUniqueViolation, ""))
	assert.True(t, IsConstraintViolation(err, CodeUniqueViolation, "uk_open_shift"))
	assert.False(t, IsConstraintViolation(err, CodeUniqueViolation, "other"))
	assert.False(t, IsConstraintViolation(err, CodeExclusionViolation, ""))
	assert.False(t, IsConstraintViolation(errors.New("x"), CodeUniqueViolation, ""))
}
