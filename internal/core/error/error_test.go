package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "bad input", Validation("bad input").Error())

	err := New(errors.New("boom"), http.StatusBadGateway, "upstream")
	assert.Equal(t, "upstream: boom", err.Error())
}

func TestAppError_IsAndAs(t *testing.T) {
	sentinel := errors.New("sentinel")
	wrapped := fmt.Errorf("load: %w", NotFound(sentinel, "missing"))

	assert.ErrorIs(t, wrapped, sentinel)

	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "missing", appErr.Message)
}

func TestStatusAndMessageOf(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"plain error", errors.New("x"), http.StatusInternalServerError, SystemErrorMessage},
		{"validation", Validation("no"), http.StatusBadRequest, "no"},
		{"unauthorized", Unauthorized("who"), http.StatusUnauthorized, "who"},
		{"conflict", Conflict(nil, "dup"), http.StatusConflict, "dup"},
		{"upstream wrapped", fmt.Errorf("ctx: %w", Upstream(errors.New("503"))), http.StatusBadGateway, UpstreamErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusOf(tt.err))
			assert.Equal(t, tt.message, MessageOf(tt.err))
		})
	}
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.ErrorIs(t, WrapRedis(redis.Nil), redis.Nil)
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("conn refused"))))
}

func TestWrapPostgres(t *testing.T) {
	assert.NoError(t, WrapPostgres(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapPostgres(pgx.ErrNoRows)))
	assert.Equal(t, http.StatusConflict, StatusOf(WrapPostgres(&pgconn.PgError{Code: "23505"})))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(WrapPostgres(errors.New("conn"))))
	assert.Nil(t, Upstream(nil))
}
