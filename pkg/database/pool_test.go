package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_StaysWithinJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := connectBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - jitterFraction))
		hi := time.Duration(float64(base) * (1 + jitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", attempt)
			assert.LessOrEqual(t, d, hi, "attempt %d", attempt)
		}
	}
}

func TestRetryBackoff_NegativeAttemptUsesBase(t *testing.T) {
	d := retryBackoff(-3)
	assert.LessOrEqual(t, d, time.Duration(float64(connectBaseWait)*(1+jitterFraction)))
}

func TestSleepCtx_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepCtx(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"dial tcp 127.0.0.1:5432: connection refused", true},
		{"read: connection reset by peer", true},
		{"write: broken pipe", true},
		{"i/o timeout", true},
		{"unexpected EOF", true},
		{"could not connect to server", true},
		{"syntax error at or near \"SELEC\"", false},
		{"duplicate key value violates unique constraint", false},
	}

	assert.False(t, isConnectionError(nil))
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(errors.New(tt.msg)))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "addresses_one_default"}

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(err, "addresses_one_default"))
	assert.False(t, IsUniqueViolation(err, "users_email_key"))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsForeignKeyViolation(err))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, int32(20), orDefault(int32(0), 20))
	assert.Equal(t, int32(5), orDefault(int32(5), 20))
	assert.Equal(t, time.Minute, orDefault(time.Duration(0), time.Minute))
}
