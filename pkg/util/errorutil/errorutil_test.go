package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	notFound := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	malformed := ToDomainError(&pgconn.PgError{Code: "22P02"})
	assert.Equal(t, CodeValidation, malformed.Code)

	internal := ToDomainError(errors.New("connection reset"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Equal(t, "internal server error", internal.Message)

	forbidden := NewForbidden("no")
	assert.Same(t, forbidden, ToDomainError(forbidden))
}

func TestConstructorsCarryStatus(t *testing.T) {
	cases := map[string]struct {
		err    error
		code   string
		status int
	}{
		"validation":     {NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		"invalid status": {NewInvalidStatus("CLOSED", []string{"PENDING"}), CodeInvalidStatus, http.StatusBadRequest},
		"unauthorized":   {NewUnauthorized("who"), CodeUnauthorized, http.StatusUnauthorized},
		"forbidden":      {NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		"not found":      {NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		"conflict":       {NewConflict("dup", nil), CodeConflict, http.StatusConflict},
		"rate limited":   {NewRateLimited(3), CodeRateLimited, http.StatusTooManyRequests},
		"internal":       {NewInternalError(errors.New("x")), CodeInternal, http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			de := ToDomainError(tc.err)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.status, de.HTTPStatus)
			assert.True(t, IsCode(tc.err, tc.code))
		})
	}
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
}
