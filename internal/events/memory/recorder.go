// Package memory records published events for test assertions.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Published is one captured event.
type Published struct {
	Kind    string
	Payload any
}

// Recorder implements events.Publisher by appending to a slice.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish captures the event and returns a synthetic message ID.
func (r *Recorder) Publish(_ context.Context, kind string, payload any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Kind: kind, Payload: payload})
	return fmt.Sprintf("msg-%d", len(r.events)), nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}
