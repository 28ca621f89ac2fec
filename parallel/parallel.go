// Package parallel runs small sets of independent fallible tasks concurrently
// and associates results positionally. It exists for CPU-bound work like the
// recognizer's dual passes, where each task runs to completion and the caller
// needs every outcome, not just the first error.
package parallel

import "context"

// Task is one independent unit of fallible work.
type Task[T any] func(ctx context.Context) (T, error)

// Result pairs a task's value with its error. Exactly one of the two is
// meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// Run executes all tasks concurrently and waits for every one of them. The
// returned slice has one Result per task, in task order. Run itself never
// fails; per-task errors are reported in place so callers can decide which
// failures are fatal.
func Run[T any](ctx context.Context, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if len(tasks) == 1 {
		results[0].Value, results[0].Err = tasks[0](ctx)
		return results
	}
	done := make(chan struct{})
	for i, task := range tasks {
		go func(i int, task Task[T]) {
			defer func() { done <- struct{}{} }()
			results[i].Value, results[i].Err = task(ctx)
		}(i, task)
	}
	for range tasks {
		<-done
	}
	return results
}
