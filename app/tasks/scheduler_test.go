package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onecart/onecart/app/bridge"
	"github.com/onecart/onecart/app/cfg"
)

type countingTask struct {
	Task
	executed atomic.Int32
}

func (t *countingTask) Execute(ctx context.Context) error {
	t.executed.Add(1)
	return nil
}

func newTestScheduler(t *testing.T, queueSize int) TaskSchedulerInterface {
	t.Helper()

	cfg.SetForTesting(&cfg.Cfg{
		WorkerCount: 2,
		QueueSize:   queueSize,
		NudgeTTLMs:  4000,
	})

	return NewScheduler(bridge.NewNudgeStore(4 * time.Second))
}

func TestSchedulerExecutesEnqueuedTasks(t *testing.T) {
	scheduler := newTestScheduler(t, 10)
	scheduler.Start()
	defer scheduler.Stop()

	task := &countingTask{Task: NewTask(TaskTypeProcessSignal, "tab-1")}
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for task.executed.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Task not executed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerRejectsWhenQueueFull(t *testing.T) {
	scheduler := newTestScheduler(t, 1)
	// Not started: nothing drains the queue.

	first := &countingTask{Task: NewTask(TaskTypeProcessSignal, "tab-1")}
	if err := scheduler.EnqueueTask(first); err != nil {
		t.Fatal(err)
	}

	second := &countingTask{Task: NewTask(TaskTypeProcessSignal, "tab-2")}
	if err := scheduler.EnqueueTask(second); err == nil {
		t.Error("Expected error when queue is full")
	}
}
