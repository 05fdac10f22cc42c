package domain

// TaskKind distinguishes the pickup step from the delivery step of an order.
type TaskKind string

const (
	TaskPickup   TaskKind = "pickup"
	TaskDelivery TaskKind = "delivery"
)

// pickupTypeID is the dispatch API's task_type_id for pickups; every other
// value is a delivery.
const pickupTypeID = 1

// TaskKindFromTypeID maps the dispatch API task_type_id to a TaskKind.
func TaskKindFromTypeID(id int) TaskKind {
	if id == pickupTypeID {
		return TaskPickup
	}
	return TaskDelivery
}

// TaskStatus represents the lifecycle state of a dispatch task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskUnknown    TaskStatus = "unknown"
)

var taskStatusCodes = map[string]TaskStatus{
	"1": TaskPending,
	"2": TaskAssigned,
	"3": TaskInProgress,
	"4": TaskCompleted,
	"5": TaskFailed,
}

// TaskStatusFromCode maps the dispatch API task_status code ("1".."5") to a
// TaskStatus. Unrecognised codes yield TaskUnknown.
func TaskStatusFromCode(code string) TaskStatus {
	if s, ok := taskStatusCodes[code]; ok {
		return s
	}
	return TaskUnknown
}

// Terminal reports whether no further transitions are expected.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// AllTerminal reports whether tasks is non-empty and every task has reached a
// terminal status, meaning the order is finished.
func AllTerminal(tasks []TaskRecord) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

// TaskRecord is one pickup or delivery step of an order.
type TaskRecord struct {
	Kind    TaskKind   `json:"kind" bson:"kind" msgpack:"kind"`
	Status  TaskStatus `json:"status" bson:"status" msgpack:"status"`
	Address string     `json:"address" bson:"address" msgpack:"address"`
}
