// Package queue defines the in-process task queue feeding the background
// workers. Import runs and smart-list generations are both dispatched as
// tasks so the HTTP handlers never do the work inline.
package queue

import "context"

// Kind discriminates what a task ID refers to.
type Kind string

// Task kinds.
const (
	KindImport    Kind = "import"
	KindSmartList Kind = "smartlist"
)

// Task is one unit of background work.
type Task struct {
	Kind Kind
	ID   string
}

// Queue is the task transport between handlers and workers.
type Queue interface {
	// Enqueue pushes a task or returns when the context ends.
	Enqueue(ctx context.Context, task Task) error

	// Dequeue pops the next task, respecting context cancellation.
	Dequeue(ctx context.Context) (Task, error)

	// Close shuts the queue down; subsequent Dequeue calls fail.
	Close()
}
