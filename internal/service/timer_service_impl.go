package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/db"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/registry"
	"github.com/alexanderramin/timekeep/internal/repository"
)

// TimerConfig configures the timer service. Zero fields take defaults.
type TimerConfig struct {
	Clock func() time.Time
	NewID func() string
	Store StorePolicy
}

type timerService struct {
	reg      *registry.Registry
	sessions repository.ActiveSessionRepo
	uow      db.UnitOfWork
	clock    func() time.Time
	newID    func() string
	store    StorePolicy
	observer UseCaseObserver
}

// NewTimerService wires the timer state machine to its registry and stores.
// Every registry mutation is written to sessions first; a stop writes the
// time log and removes the durable session in one uow transaction.
func NewTimerService(
	reg *registry.Registry,
	sessions repository.ActiveSessionRepo,
	uow db.UnitOfWork,
	cfg TimerConfig,
	observers ...UseCaseObserver,
) TimerService {
	s := &timerService{
		reg:      reg,
		sessions: sessions,
		uow:      uow,
		clock:    cfg.Clock,
		newID:    cfg.NewID,
		store:    cfg.Store,
		observer: useCaseObserverOrNoop(observers),
	}
	if s.clock == nil {
		s.clock = systemClock
	}
	if s.newID == nil {
		s.newID = newID
	}
	if s.store == (StorePolicy{}) {
		s.store = DefaultStorePolicy()
	}
	return s
}

func (s *timerService) Restore(ctx context.Context) (int, error) {
	var n int
	err := storeCall(ctx, s.store, func(ctx context.Context) error {
		var err error
		n, err = s.reg.Restore(ctx, s.sessions)
		return err
	})
	return n, err
}

// Sync reconciles the registry with active_sessions, which other processes
// sharing the database change. Only users whose row and registry entry
// disagree are re-read, under their own lock.
func (s *timerService) Sync(ctx context.Context) error {
	var rows []*domain.TimerSession
	err := storeCall(ctx, s.store, func(ctx context.Context) error {
		var err error
		rows, err = s.sessions.List(ctx)
		return err
	})
	if err != nil {
		return err
	}

	durable := make(map[string]*domain.TimerSession, len(rows))
	for _, row := range rows {
		durable[row.UserID] = row
	}
	stale := make(map[string]struct{})
	for userID, row := range durable {
		cur, ok := s.reg.LookupByUser(userID)
		if !ok || !agrees(cur, row) {
			stale[userID] = struct{}{}
		}
	}
	for _, cur := range s.reg.Snapshot() {
		if _, ok := durable[cur.UserID]; !ok {
			stale[cur.UserID] = struct{}{}
		}
	}

	var errs []error
	for _, userID := range slices.Sorted(maps.Keys(stale)) {
		err := s.reg.WithUserLock(userID, func() error {
			row, err := s.loadByUser(ctx, userID)
			if err != nil {
				return err
			}
			s.reconcile(userID, row)
			return nil
		})
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// agrees reports whether the registry entry cur already reflects row. A
// pending log held only in memory wins over the row it failed to replace.
func agrees(cur, row *domain.TimerSession) bool {
	if cur.ID != row.ID {
		return false
	}
	if cur.IsPendingLog() {
		return true
	}
	return !row.UpdatedAt.After(cur.UpdatedAt)
}

// reconcile makes the registry entry for userID match row, which is nil when
// the user has no durable session. Callers hold the user's lock.
func (s *timerService) reconcile(userID string, row *domain.TimerSession) {
	cur, ok := s.reg.LookupByUser(userID)
	switch {
	case row == nil || (!row.IsActive() && !row.IsPendingLog()):
		// The stop that deleted the row also stored its log.
		if ok {
			s.reg.Remove(cur.ID)
		}
	case ok && agrees(cur, row):
	default:
		s.reg.Adopt(row)
	}
}

// loadByUser reads the user's durable session, returning nil when there is
// none.
func (s *timerService) loadByUser(ctx context.Context, userID string) (*domain.TimerSession, error) {
	var row *domain.TimerSession
	err := storeCall(ctx, s.store, func(ctx context.Context) error {
		var err error
		row, err = s.sessions.GetByUser(ctx, userID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return row, err
}

// loadByID reads an open or pending durable session.
func (s *timerService) loadByID(ctx context.Context, sessionID string) (*domain.TimerSession, error) {
	var row *domain.TimerSession
	err := storeCall(ctx, s.store, func(ctx context.Context) error {
		var err error
		row, err = s.sessions.GetByID(ctx, sessionID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !row.IsActive() && !row.IsPendingLog()) {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return row, err
}

func (s *timerService) Start(ctx context.Context, req app.StartRequest) (session *domain.TimerSession, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": req.UserID, "task_id": req.TaskID}
	defer func() { observeUseCase(ctx, s.observer, "timer-start", startedAt, fields, err) }()

	if req.UserID == "" || req.TaskID == "" {
		return nil, fmt.Errorf("user id and task id are required: %w", domain.ErrInvalidArgument)
	}

	err = s.reg.WithUserLock(req.UserID, func() error {
		if cur, ok := s.reg.LookupByUser(req.UserID); ok {
			// Another process may have stopped it; the durable row decides.
			if row, err := s.loadByUser(ctx, req.UserID); err == nil {
				s.reconcile(req.UserID, row)
				cur, ok = s.reg.LookupByUser(req.UserID)
			}
			if ok {
				return fmt.Errorf("session %s is still %s: %w", cur.ID, cur.State, domain.ErrConflict)
			}
		}

		next, err := domain.NewTimerSession(s.newID(), req.UserID, req.TaskID, req.Description, s.clock())
		if err != nil {
			return err
		}
		if err := s.createDurable(ctx, next); err != nil {
			return err
		}
		if err := s.reg.RegisterStart(next); err != nil {
			return err
		}
		session = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["session_id"] = session.ID
	return session, nil
}

// createDurable inserts the session row. A duplicate for the same session ID
// means an earlier attempt committed without acknowledgement; a row for
// another session is adopted and reported as a conflict. When that row is
// gone by the time it is read, the insert is tried once more.
func (s *timerService) createDurable(ctx context.Context, next *domain.TimerSession) error {
	const attempts = 2
	for i := 0; ; i++ {
		err := storeCall(ctx, s.store, func(ctx context.Context) error {
			return s.sessions.Create(ctx, next)
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}

		existing, err := s.loadByUser(ctx, next.UserID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil && i+1 < attempts:
			continue
		case existing == nil:
			return fmt.Errorf("user %s holds a session slot that keeps changing: %w", next.UserID, domain.ErrConflict)
		case existing.ID == next.ID:
			return nil
		}
		s.reconcile(next.UserID, existing)
		return fmt.Errorf("user %s already has session %s: %w", next.UserID, existing.ID, domain.ErrConflict)
	}
}

// withSession runs fn under the lock of the session's owner with the
// session's current version. A session missing from the registry is looked
// up in the durable store, since another process may have started it.
func (s *timerService) withSession(ctx context.Context, sessionID string, fn func(cur *domain.TimerSession) error) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required: %w", domain.ErrInvalidArgument)
	}
	owner, ok := s.reg.LookupBySession(sessionID)
	if !ok {
		row, err := s.loadByID(ctx, sessionID)
		if err != nil {
			return err
		}
		owner = row
	}
	return s.reg.WithUserLock(owner.UserID, func() error {
		cur, ok := s.reg.LookupBySession(sessionID)
		if !ok {
			row, err := s.loadByID(ctx, sessionID)
			if err != nil {
				return err
			}
			s.reg.Adopt(row)
			cur = row
		}
		return fn(cur)
	})
}

func (s *timerService) Pause(ctx context.Context, sessionID, userID string) (session *domain.TimerSession, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID, "session_id": sessionID}
	defer func() { observeUseCase(ctx, s.observer, "timer-pause", startedAt, fields, err) }()

	err = s.withSession(ctx, sessionID, func(cur *domain.TimerSession) error {
		if err := cur.CheckOwner(userID); err != nil {
			return err
		}
		next, err := cur.Pause(s.clock())
		if err != nil {
			return err
		}
		if err := s.publish(ctx, next); err != nil {
			return err
		}
		session = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["accumulated_seconds"] = session.AccumulatedSeconds
	return session, nil
}

func (s *timerService) Resume(ctx context.Context, sessionID, userID string) (session *domain.TimerSession, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID, "session_id": sessionID}
	defer func() { observeUseCase(ctx, s.observer, "timer-resume", startedAt, fields, err) }()

	err = s.withSession(ctx, sessionID, func(cur *domain.TimerSession) error {
		if err := cur.CheckOwner(userID); err != nil {
			return err
		}
		next, err := cur.Resume(s.clock())
		if err != nil {
			return err
		}
		if err := s.publish(ctx, next); err != nil {
			return err
		}
		session = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// publish writes next to the durable store and then to the registry. A row
// missing from the store means another process already stopped the session.
func (s *timerService) publish(ctx context.Context, next *domain.TimerSession) error {
	err := storeCall(ctx, s.store, func(ctx context.Context) error {
		return s.sessions.Update(ctx, next)
	})
	if errors.Is(err, repository.ErrNotFound) {
		s.reg.Remove(next.ID)
		return fmt.Errorf("session %s was stopped elsewhere: %w", next.ID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return s.reg.Replace(next)
}

func (s *timerService) Stop(ctx context.Context, req app.StopRequest) (*domain.TimeLog, error) {
	return s.stop(ctx, "timer-stop", req, true)
}

func (s *timerService) ForceStop(ctx context.Context, req app.StopRequest) (*domain.TimeLog, error) {
	return s.stop(ctx, "timer-force-stop", req, false)
}

func (s *timerService) stop(ctx context.Context, name string, req app.StopRequest, checkOwner bool) (log *domain.TimeLog, err error) {
	startedAt := time.Now()
	fields := map[string]any{"session_id": req.SessionID}
	if checkOwner {
		fields["user_id"] = req.UserID
	}
	defer func() { observeUseCase(ctx, s.observer, name, startedAt, fields, err) }()

	err = s.withSession(ctx, req.SessionID, func(cur *domain.TimerSession) error {
		if checkOwner {
			if err := cur.CheckOwner(req.UserID); err != nil {
				return err
			}
		}

		closed := cur
		pending := cur.PendingLog
		if !cur.IsPendingLog() {
			var err error
			closed, pending, err = cur.Close(s.clock(), domain.CloseOptions{
				LogID:       s.newID(),
				Description: req.Description,
				IsBillable:  req.IsBillable,
			})
			if err != nil {
				return err
			}
		} else {
			fields["retry"] = true
		}

		if err := s.persistStop(ctx, pending); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.reg.Remove(cur.ID)
				return err
			}
			if closed != cur {
				if replaceErr := s.reg.Replace(closed); replaceErr != nil {
					return errors.Join(err, replaceErr)
				}
				s.markClosed(ctx, closed)
			}
			return fmt.Errorf("session %s closed, time log %s pending: %w", cur.ID, pending.ID, err)
		}

		s.reg.Remove(cur.ID)
		log = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["log_id"] = log.ID
	fields["duration_seconds"] = log.DurationSeconds
	return log, nil
}

// markClosed records the closed session and its pending log on the durable
// row so a later process retries the same log instead of resuming the timer.
// It makes one attempt; if it fails too, the row still says the session is
// open.
func (s *timerService) markClosed(ctx context.Context, closed *domain.TimerSession) {
	ctx = context.WithoutCancel(ctx)
	_ = callWithTimeout(ctx, s.store.Timeout, func(ctx context.Context) error {
		return s.sessions.Update(ctx, closed)
	})
}

// persistStop appends the log and drops the durable session in one
// transaction. Retrying the same log after a lost acknowledgement is a no-op
// insert followed by a no-op delete.
func (s *timerService) persistStop(ctx context.Context, log *domain.TimeLog) error {
	err := storeCall(ctx, s.store, func(ctx context.Context) error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			if err := repository.NewSQLiteTimeLogRepo(tx).Create(ctx, log); err != nil {
				return err
			}
			return repository.NewSQLiteActiveSessionRepo(tx).Delete(ctx, log.SessionID)
		})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("session %s was already stopped: %w", log.SessionID, domain.ErrNotFound)
	}
	return err
}

func (s *timerService) Current(ctx context.Context, userID string) (*domain.TimerSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	var cur *domain.TimerSession
	err := s.reg.WithUserLock(userID, func() error {
		// The registry answers on its own when the store cannot be read.
		if row, err := s.loadByUser(ctx, userID); err == nil {
			s.reconcile(userID, row)
		}
		var ok bool
		if cur, ok = s.reg.LookupByUser(userID); !ok {
			return fmt.Errorf("no timer running for %s: %w", userID, domain.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *timerService) FlushPending(ctx context.Context) (result app.FlushResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		fields["attempted"] = result.Attempted
		fields["flushed"] = result.Flushed
		fields["remaining"] = result.Remaining
		observeUseCase(ctx, s.observer, "timer-flush-pending", startedAt, fields, err)
	}()

	var errs []error
	// Pick up pending logs left by processes that exited before storing them.
	if syncErr := s.Sync(ctx); syncErr != nil {
		errs = append(errs, syncErr)
	}
	for _, p := range s.reg.Pending() {
		result.Attempted++
		_, stopErr := s.ForceStop(ctx, app.StopRequest{SessionID: p.ID})
		switch {
		case stopErr == nil, errors.Is(stopErr, domain.ErrNotFound):
			result.Flushed++
		default:
			result.Remaining++
			errs = append(errs, stopErr)
		}
	}
	return result, errors.Join(errs...)
}
