package aggregate

import (
	"fmt"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/montanaflynn/stats"
)

type memberAcc struct {
	stats     MemberStats
	tasks     map[string]struct{}
	durations stats.Float64Data
}

// Compute builds a snapshot for rng from logs. completed holds the IDs of
// tasks that reached "done" inside the range. Logs outside the range or the
// scope are ignored, so callers may pass a superset.
func Compute(logs []*domain.TimeLog, completed []string, rng domain.TimeRange, scope Scope, opts Options) (*Snapshot, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	if opts.ReferenceSecondsPerTask <= 0 {
		return nil, fmt.Errorf("reference seconds per task must be positive, got %d: %w",
			opts.ReferenceSecondsPerTask, domain.ErrInvalidArgument)
	}

	done := toSet(completed)
	var taskScope map[string]struct{}
	if scope.TaskIDs != nil {
		taskScope = toSet(scope.TaskIDs)
	}

	snap := &Snapshot{
		Start:   rng.Start,
		End:     rng.End,
		Scope:   scope,
		Members: []MemberStats{},
	}
	allTasks := make(map[string]struct{})
	members := make(map[string]*memberAcc)

	for _, l := range logs {
		if !inScope(l, rng, scope, taskScope) {
			continue
		}
		snap.TotalSeconds += l.DurationSeconds
		snap.LogCount++
		if l.IsBillable {
			snap.BillableSeconds += l.DurationSeconds
		}

		acc, ok := members[l.UserID]
		if !ok {
			acc = &memberAcc{stats: MemberStats{UserID: l.UserID}, tasks: make(map[string]struct{})}
			members[l.UserID] = acc
		}
		acc.stats.TotalSeconds += l.DurationSeconds
		acc.stats.LogCount++
		if l.IsBillable {
			acc.stats.BillableSeconds += l.DurationSeconds
		}
		acc.durations = append(acc.durations, float64(l.DurationSeconds))

		if _, ok := done[l.TaskID]; ok {
			allTasks[l.TaskID] = struct{}{}
			acc.tasks[l.TaskID] = struct{}{}
		}
	}

	snap.TasksCompletedCount = len(allTasks)
	snap.AvgSecondsPerTask = avgPerTask(snap.TotalSeconds, snap.TasksCompletedCount)

	for _, acc := range members {
		m := acc.stats
		m.TasksCompletedCount = len(acc.tasks)
		m.AvgSecondsPerTask = avgPerTask(m.TotalSeconds, m.TasksCompletedCount)
		m.EfficiencyScore = efficiency(m.TasksCompletedCount, m.TotalSeconds, opts.ReferenceSecondsPerTask)
		if median, err := stats.Median(acc.durations); err == nil {
			m.MedianLogSeconds = median
		}
		snap.Members = append(snap.Members, m)
	}
	RankMembers(snap.Members)

	return snap, nil
}

func inScope(l *domain.TimeLog, rng domain.TimeRange, scope Scope, taskScope map[string]struct{}) bool {
	if !rng.Contains(l.StartTime) {
		return false
	}
	if scope.MemberID != "" && l.UserID != scope.MemberID {
		return false
	}
	if scope.TaskID != "" && l.TaskID != scope.TaskID {
		return false
	}
	if taskScope != nil {
		if _, ok := taskScope[l.TaskID]; !ok {
			return false
		}
	}
	return true
}

// avgPerTask divides with integer truncation. An empty task count divides by one.
func avgPerTask(total int64, tasks int) int64 {
	if tasks < 1 {
		return total
	}
	return total / int64(tasks)
}

// efficiency compares completed tasks against the reference pace. It is zero
// when no time was logged.
func efficiency(tasks int, total, reference int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(tasks) * float64(reference) / float64(total)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
