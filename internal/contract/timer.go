package contract

import (
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
)

type StartTimerBody struct {
	TaskID      string `json:"taskId"`
	Description string `json:"description,omitempty"`
}

type SessionBody struct {
	SessionID string `json:"sessionId"`
}

type StopTimerBody struct {
	SessionID   string  `json:"sessionId"`
	Description *string `json:"description,omitempty"`
	IsBillable  *bool   `json:"isBillable,omitempty"`
}

// ToStopRequest maps the body onto a stop request for userID.
func (b StopTimerBody) ToStopRequest(userID string) StopRequest {
	return StopRequest{
		SessionID:   b.SessionID,
		UserID:      userID,
		Description: b.Description,
		IsBillable:  b.IsBillable,
	}
}

type SessionResponse struct {
	SessionID          string     `json:"sessionId"`
	UserID             string     `json:"userId"`
	TaskID             string     `json:"taskId"`
	State              string     `json:"state"`
	SegmentStart       *time.Time `json:"segmentStart"`
	AccumulatedSeconds int64      `json:"accumulatedSeconds"`
	ElapsedSeconds     int64      `json:"elapsedSeconds"`
	Description        string     `json:"description,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// NewSessionResponse renders s with its elapsed time as of now.
func NewSessionResponse(s *domain.TimerSession, now time.Time) SessionResponse {
	return SessionResponse{
		SessionID:          s.ID,
		UserID:             s.UserID,
		TaskID:             s.TaskID,
		State:              string(s.State),
		SegmentStart:       s.SegmentStart,
		AccumulatedSeconds: s.AccumulatedSeconds,
		ElapsedSeconds:     s.ElapsedSeconds(now),
		Description:        s.Description,
		CreatedAt:          s.CreatedAt,
	}
}

type TimeLogResponse struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	TaskID          string    `json:"taskId"`
	UserID          string    `json:"userId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationSeconds int64     `json:"durationSeconds"`
	Description     string    `json:"description"`
	IsBillable      bool      `json:"isBillable"`
}

func NewTimeLogResponse(l *domain.TimeLog) TimeLogResponse {
	return TimeLogResponse{
		ID:              l.ID,
		SessionID:       l.SessionID,
		TaskID:          l.TaskID,
		UserID:          l.UserID,
		StartTime:       l.StartTime,
		EndTime:         l.EndTime,
		DurationSeconds: l.DurationSeconds,
		Description:     l.Description,
		IsBillable:      l.IsBillable,
	}
}
