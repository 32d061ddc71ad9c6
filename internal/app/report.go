package app

import (
	"time"

	"github.com/alexanderramin/timekeep/internal/export"
)

// ReportRequest selects a range and scope to aggregate. Range is a shortcut
// such as "this-week"; when empty, From and To are parsed instead. A nil Now
// means the service clock.
type ReportRequest struct {
	Range     string
	From      string
	To        string
	Now       *time.Time
	MemberID  string
	TaskID    string
	ProjectID string
}

// NewReportRequest returns a request for the current week.
func NewReportRequest() ReportRequest {
	return ReportRequest{Range: "this-week"}
}

// ExportRequest selects what to export and how to encode it.
type ExportRequest struct {
	ReportRequest
	Format  export.Format
	Subject export.Subject
}

// ExportResult summarises a finished export.
type ExportResult struct {
	Format  export.Format
	Subject export.Subject
	Rows    int
	Start   time.Time
	End     time.Time
}
