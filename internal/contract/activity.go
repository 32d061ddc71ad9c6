package contract

import (
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
)

type ActiveSessionResponse struct {
	SessionID          string     `json:"sessionId"`
	UserID             string     `json:"userId"`
	TaskID             string     `json:"taskId"`
	State              string     `json:"state"`
	ElapsedSeconds     int64      `json:"elapsedSeconds"`
	SegmentStart       *time.Time `json:"segmentStart"`
	AccumulatedSeconds int64      `json:"accumulatedSeconds"`
	Description        string     `json:"description,omitempty"`
	TaskTitle          string     `json:"taskTitle,omitempty"`
	TaskType           string     `json:"taskType,omitempty"`
	Priority           string     `json:"priority,omitempty"`
	ProjectID          string     `json:"projectId,omitempty"`
}

// NewActiveSessionsResponse maps views to their wire form. The result is
// never nil so an empty view encodes as [].
func NewActiveSessionsResponse(views []app.ActiveSessionView) []ActiveSessionResponse {
	out := make([]ActiveSessionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ActiveSessionResponse{
			SessionID:          v.SessionID,
			UserID:             v.UserID,
			TaskID:             v.TaskID,
			State:              string(v.State),
			ElapsedSeconds:     v.ElapsedSeconds,
			SegmentStart:       v.SegmentStart,
			AccumulatedSeconds: v.AccumulatedSeconds,
			Description:        v.Description,
			TaskTitle:          v.TaskTitle,
			TaskType:           v.TaskType,
			Priority:           string(v.Priority),
			ProjectID:          v.ProjectID,
		})
	}
	return out
}
