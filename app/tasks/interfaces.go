package tasks

// TaskSchedulerInterface is the scheduler surface used by the main
// application: start the worker pool and periodic sweep, stop cleanly, and
// accept ad-hoc tasks.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
