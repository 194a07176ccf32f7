// package testing contains shared testing utilities
package testing

import (
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hollowtree-labs/harmonia/internal/shared"
)

// Event is one emission captured by [RecordingEmitter].
type Event struct {
	Name    string
	Payload any
}

// RecordingEmitter is a test double for [events.Emitter] that records every
// emission. Safe for concurrent use.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordingEmitter) Emit(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: event, Payload: payload})
}

// Events returns a copy of every recorded emission in order.
func (r *RecordingEmitter) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Named returns the recorded emissions with the given event name, in order.
func (r *RecordingEmitter) Named(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// NewLogger returns a logger that discards all output.
func NewLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
