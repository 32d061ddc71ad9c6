package httpapi

import (
	"context"
	"net/http"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/contract"
	"github.com/alexanderramin/timekeep/internal/domain"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var body contract.StartTimerBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	caller := callerFrom(r.Context())
	session, err := s.timer.Start(r.Context(), app.StartRequest{
		UserID:      caller.UserID,
		TaskID:      body.TaskID,
		Description: body.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.NewSessionResponse(session, s.clock()))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.timer.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.timer.Resume)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sessionID, userID string) (*domain.TimerSession, error)) {
	var body contract.SessionBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := fn(r.Context(), body.SessionID, callerFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewSessionResponse(session, s.clock()))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.close(w, r, s.timer.Stop)
}

func (s *Server) handleForceStop(w http.ResponseWriter, r *http.Request) {
	s.close(w, r, s.timer.ForceStop)
}

func (s *Server) close(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, req app.StopRequest) (*domain.TimeLog, error)) {
	var body contract.StopTimerBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	log, err := fn(r.Context(), body.ToStopRequest(callerFrom(r.Context()).UserID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewTimeLogResponse(log))
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	session, err := s.timer.Current(r.Context(), callerFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewSessionResponse(session, s.clock()))
}
