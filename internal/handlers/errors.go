package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gamedash/internal/games"
	"gamedash/internal/report"
	"gamedash/internal/security"
	"gamedash/internal/service"
	"gamedash/internal/validation"
)

// errorResponse is the body of every non-2xx JSON response
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, logger *slog.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error(logMsg, "status", status, "error", err)
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps a service or report error to its status code
func respondWithServiceError(w http.ResponseWriter, logger *slog.Logger, logMsg string, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, games.ErrInvalidGameType), errors.Is(err, report.ErrInvalidFilter):
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotFound})
	case errors.Is(err, service.ErrEmailTaken):
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, security.ErrInvalidToken):
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
	case errors.Is(err, service.ErrForbidden):
		respondWithJSON(w, http.StatusForbidden, errorResponse{Error: ErrForbidden})
	case errors.Is(err, report.ErrStoreUnavailable):
		respondWithError(w, logger, http.StatusServiceUnavailable, ErrServiceUnavailable, logMsg, err)
	default:
		respondWithError(w, logger, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
