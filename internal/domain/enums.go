package domain

type SessionState string

const (
	SessionRunning SessionState = "RUNNING"
	SessionPaused  SessionState = "PAUSED"
	SessionClosed  SessionState = "CLOSED"
)

// ValidSessionStates is the canonical set of accepted session state strings.
var ValidSessionStates = map[string]bool{
	"RUNNING": true, "PAUSED": true, "CLOSED": true,
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// ValidTaskPriorities is the canonical set of accepted priority strings.
var ValidTaskPriorities = map[string]bool{
	"low": true, "medium": true, "high": true, "urgent": true,
}
