// Package export writes time logs and aggregate snapshots as CSV, XLSX or
// JSON. Log exports are written row by row so memory does not grow with the
// size of the range.
package export

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timekeep/internal/domain"
)

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Subject selects what is exported.
type Subject string

const (
	SubjectLogs     Subject = "logs"
	SubjectSnapshot Subject = "snapshot"
)

// DefaultFlushRows is how many rows are buffered between flushes.
const DefaultFlushRows = 500

// TimeLogHeader is the fixed column order of tabular log exports.
var TimeLogHeader = []string{
	"log_id", "session_id", "task_id", "user_id", "start_time", "end_time",
	"duration_seconds", "billable", "description",
}

// SnapshotHeader is the fixed column order of tabular snapshot exports.
var SnapshotHeader = []string{
	"scope", "user_id", "range_start", "range_end", "total_seconds",
	"billable_seconds", "tasks_completed", "avg_seconds_per_task",
	"efficiency_score", "log_count", "median_log_seconds",
}

// ParseFormat accepts a format name, defaulting to CSV when empty.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, xlsx or json): %w", s, domain.ErrInvalidArgument)
}

// ParseSubject accepts a subject name, defaulting to logs when empty.
func ParseSubject(s string) (Subject, error) {
	switch Subject(strings.ToLower(strings.TrimSpace(s))) {
	case "", SubjectLogs:
		return SubjectLogs, nil
	case SubjectSnapshot:
		return SubjectSnapshot, nil
	}
	return "", fmt.Errorf("unknown export subject %q (want logs or snapshot): %w", s, domain.ErrInvalidArgument)
}

// ContentType returns the MIME type for HTTP responses.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string {
	if f == "" {
		return string(FormatCSV)
	}
	return string(f)
}
