// Package contract holds the JSON wire types of the HTTP API.
package contract

import "github.com/alexanderramin/timekeep/internal/app"

type StartRequest = app.StartRequest

type StopRequest = app.StopRequest

type ActiveFilter = app.ActiveFilter

type ReportRequest = app.ReportRequest

type ExportRequest = app.ExportRequest

type ErrorCode string

const (
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeInvalidRange     ErrorCode = "INVALID_RANGE"
	ErrCodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return string(e.Code) + ": " + e.Message
}
