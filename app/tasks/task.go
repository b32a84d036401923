package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeProcessSignal TaskType = "process_signal"
	TaskTypeDeliverNudge  TaskType = "deliver_nudge"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetTabID() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	RetryDelay() time.Duration
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID            string
	Type          TaskType
	TabID         string
	RetryCount    int
	MaxRetries    int
	RetrySchedule []time.Duration
	StartedAt     *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetTabID() string {
	return t.TabID
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// RetryDelay returns the wait before the next attempt, following the task's
// fixed backoff schedule. The last schedule entry repeats when retries
// outnumber entries.
func (t *Task) RetryDelay() time.Duration {
	if len(t.RetrySchedule) == 0 {
		return time.Second
	}
	idx := t.RetryCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(t.RetrySchedule) {
		idx = len(t.RetrySchedule) - 1
	}
	return t.RetrySchedule[idx]
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, tabID string) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:    uniqueID,
		Type:  taskType,
		TabID: tabID,
	}
}
