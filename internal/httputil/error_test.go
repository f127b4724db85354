package httputil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{sql.ErrNoRows, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", sql.ErrNoRows), http.StatusNotFound},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{bracket.ErrUnsupportedFormat, http.StatusBadRequest},
		{service.ErrNotOwner, http.StatusForbidden},
		{fmt.Errorf("listing: %w", service.ErrUnauthenticated), http.StatusUnauthorized},
		{service.ErrTournamentFull, http.StatusConflict},
		{service.ErrAlreadyRegistered, http.StatusConflict},
		{fmt.Errorf("%w: tournament is in_progress", service.ErrRegistrationClosed), http.StatusConflict},
		{fmt.Errorf("%w: done", bracket.ErrInvalidTransition), http.StatusConflict},
		{bracket.ErrDownstreamSlotOccupied, http.StatusConflict},
		{bracket.ErrWinnerNotInMatch, http.StatusUnprocessableEntity},
		{&bracket.InconsistentBracketError{}, http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, "failed to submit", errors.New("sqlite: disk I/O error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "sqlite")

	rec = httptest.NewRecorder()
	Error(rec, "failed to submit", bracket.ErrMatchNotReady)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, bracket.ErrMatchNotReady.Error(), body["error"])
}
