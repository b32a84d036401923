package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the API layer and by tasks that spawn follow-up work.
// Example usage:
//
//	scheduler := NewScheduler(nudges)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewProcessSignalTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
