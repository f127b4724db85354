package httputil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/service"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	JSON(w, http.StatusInternalServerError, errorBody{"Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	warn(http.StatusBadRequest, msg, err)
	JSON(w, http.StatusBadRequest, errorBody{msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	warn(http.StatusNotFound, msg, err)
	JSON(w, http.StatusNotFound, errorBody{msg})
}

func Unauthorized(w http.ResponseWriter) {
	JSON(w, http.StatusUnauthorized, errorBody{"authentication required"})
}

// Error picks the status for a service error. Domain errors keep their
// message; anything unrecognised is a 500.
func Error(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusInternalServerError:
		InternalServerError(w, msg, err)
	case http.StatusNotFound:
		NotFound(w, msg+": not found", err)
	default:
		warn(status, msg, err)
		JSON(w, status, errorBody{err.Error()})
	}
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, bracket.ErrInvalidParticipantCount),
		errors.Is(err, bracket.ErrDuplicateParticipant),
		errors.Is(err, bracket.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, bracket.ErrInvalidTransition),
		errors.Is(err, bracket.ErrDownstreamSlotOccupied),
		errors.Is(err, service.ErrTournamentClosed),
		errors.Is(err, service.ErrRegistrationClosed),
		errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrTournamentFull):
		return http.StatusConflict
	case errors.Is(err, bracket.ErrMatchNotReady),
		errors.Is(err, bracket.ErrWinnerNotInMatch),
		errors.Is(err, bracket.ErrUndecidedSets),
		errors.Is(err, bracket.ErrByeMatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func warn(status int, msg string, err error) {
	fields := []zap.Field{zap.Int("status", status), zap.String("message", msg)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	zap.L().Warn("request failed", fields...)
}
