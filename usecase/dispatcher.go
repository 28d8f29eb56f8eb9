package usecase

import (
	"context"
	"fmt"
	"sync"
)

// Kind distinguishes state-changing commands from read-only queries.
type Kind string

const (
	KindCommand Kind = "command"
	KindQuery   Kind = "query"
)

type CommandHandler func(ctx context.Context, payload interface{}) (interface{}, error)
type QueryHandler func(ctx context.Context, params interface{}) (interface{}, error)

// HandlerFunc is the common shape of commands and queries seen by behaviors.
type HandlerFunc func(ctx context.Context, request interface{}) (interface{}, error)

// Behavior wraps every dispatched request. The first registered behavior is outermost.
type Behavior func(kind Kind, name string, next HandlerFunc) HandlerFunc

// Dispatcher routes named commands and queries to their registered handlers.
type Dispatcher struct {
	cmdHandlers map[string]CommandHandler
	qryHandlers map[string]QueryHandler
	behaviors   []Behavior
	mu          sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		cmdHandlers: make(map[string]CommandHandler),
		qryHandlers: make(map[string]QueryHandler),
	}
}

func (d *Dispatcher) RegisterCommand(name string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmdHandlers[name] = handler
}

func (d *Dispatcher) RegisterQuery(name string, handler QueryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.qryHandlers[name] = handler
}

// Use appends a behavior to the pipeline.
func (d *Dispatcher) Use(behavior Behavior) {
	if behavior == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.behaviors = append(d.behaviors, behavior)
}

func (d *Dispatcher) ExecuteCommand(ctx context.Context, name string, payload interface{}) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.cmdHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("command handler %s not registered", name)
	}
	return d.pipeline(KindCommand, name, HandlerFunc(handler))(ctx, payload)
}

func (d *Dispatcher) ExecuteQuery(ctx context.Context, name string, params interface{}) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.qryHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("query handler %s not registered", name)
	}
	return d.pipeline(KindQuery, name, HandlerFunc(handler))(ctx, params)
}

func (d *Dispatcher) pipeline(kind Kind, name string, final HandlerFunc) HandlerFunc {
	d.mu.RLock()
	behaviors := d.behaviors
	d.mu.RUnlock()

	h := final
	for i := len(behaviors) - 1; i >= 0; i-- {
		h = behaviors[i](kind, name, h)
	}
	return h
}
