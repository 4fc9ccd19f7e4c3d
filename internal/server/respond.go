package server

import (
	"encoding/json"
	"errors"
	"kickelo/internal/api"
	"kickelo/internal/constants"
	"kickelo/internal/domain"
	"kickelo/internal/middleware"
	"kickelo/internal/pairing"
	"kickelo/internal/repository"
	"kickelo/internal/season"
	"kickelo/internal/service"
	"net/http"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already out, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pairing.ErrNotEnoughPlayers),
		errors.Is(err, pairing.ErrNoCandidates),
		errors.Is(err, domain.ErrEmptyTeam),
		errors.Is(err, domain.ErrTeamTooLarge),
		errors.Is(err, domain.ErrBlankPlayer),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrInvalidWinner):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrUnknownPlayer),
		errors.Is(err, season.ErrUnknownSeason):
		return http.StatusNotFound
	case errors.Is(err, api.ErrUpstreamDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(r.Context())})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}
