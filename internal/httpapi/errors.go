package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexanderramin/timekeep/internal/contract"
	"github.com/alexanderramin/timekeep/internal/domain"
)

// statusFor maps a service error onto its HTTP status and wire code.
func statusFor(err error) (int, contract.ErrorCode) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, contract.ErrCodeConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, contract.ErrCodeNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusUnprocessableEntity, contract.ErrCodeInvalidState
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest, contract.ErrCodeInvalidRange
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, contract.ErrCodeInvalidArgument
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, contract.ErrCodeStoreUnavailable
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, contract.ErrCodeUnauthenticated
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, contract.ErrCodeForbidden
	default:
		return http.StatusInternalServerError, contract.ErrCodeInternal
	}
}

func errorBody(err error) *contract.ErrorResponse {
	_, code := statusFor(err)
	return &contract.ErrorResponse{Code: code, Message: err.Error()}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.String("error", msg))
		msg = "internal error"
	}
	writeErrorResponse(w, status, &contract.ErrorResponse{Code: code, Message: msg})
}

func writeErrorResponse(w http.ResponseWriter, status int, body *contract.ErrorResponse) {
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into dst. Unknown fields are rejected.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}
