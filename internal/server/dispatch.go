package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
)

// HandlerFunc processes one inbound command payload.
type HandlerFunc func(ctx context.Context, payload json.RawMessage)

// Dispatcher routes inbound commands to their registered handlers. Each
// dispatch runs on its own goroutine so a slow handler never blocks the
// WebSocket read loop.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	wg       sync.WaitGroup
	logger   *log.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Register binds a handler to a command name, replacing any previous binding.
func (d *Dispatcher) Register(event string, handler func(ctx context.Context, payload json.RawMessage)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = handler
}

// Dispatch runs the handler for the named command in the background. Unknown
// commands are logged and dropped.
func (d *Dispatcher) Dispatch(event string, payload json.RawMessage) {
	d.mu.RLock()
	handler, ok := d.handlers[event]
	d.mu.RUnlock()

	if !ok {
		d.logger.Warn("unknown command", "event", event)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("command handler panicked", "event", event, "panic", r)
			}
		}()
		handler(context.Background(), payload)
	}()
}

// Wait blocks until every in-flight handler has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
