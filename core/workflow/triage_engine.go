// Package workflow is a small in-process ticket workflow engine: keyed
// delegate chains, a live variable scope per instance, and a historical
// variable store for instances that complete before their variables are
// read. It stands in for an external workflow engine while keeping its
// observable contract: start by key, read variables live or from history.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mailtriage/core/port/out"
)

// Execution is the variable scope of one running instance. Delegates
// read and write variables through it.
type Execution struct {
	instanceID string

	mu   sync.RWMutex
	vars map[string]string
}

func (e *Execution) InstanceID() string { return e.instanceID }

func (e *Execution) SetVariable(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = value
}

func (e *Execution) Variable(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}

func (e *Execution) snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Delegate is one step of a process.
type Delegate interface {
	Execute(ctx context.Context, ex *Execution) error
}

// DelegateFunc adapts a function to the Delegate interface.
type DelegateFunc func(ctx context.Context, ex *Execution) error

func (f DelegateFunc) Execute(ctx context.Context, ex *Execution) error { return f(ctx, ex) }

// Engine runs registered delegate chains. Instances execute
// asynchronously; completed instances move their variables to the
// history store and leave the live scope, in that order, so a variable
// is always reachable through one of the two.
type Engine struct {
	mu        sync.RWMutex
	processes map[string][]Delegate
	live      map[string]*Execution

	history     out.VariableHistoryRepository
	execTimeout time.Duration
	wg          sync.WaitGroup
	log         zerolog.Logger
}

const defaultExecTimeout = 30 * time.Second

func NewEngine(history out.VariableHistoryRepository, log zerolog.Logger) *Engine {
	return &Engine{
		processes:   make(map[string][]Delegate),
		live:        make(map[string]*Execution),
		history:     history,
		execTimeout: defaultExecTimeout,
		log:         log.With().Str("component", "workflow_engine").Logger(),
	}
}

// RegisterProcess binds a delegate chain to a process key.
func (e *Engine) RegisterProcess(key string, delegates ...Delegate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processes[key] = delegates
}

// StartInstanceByKey creates an instance seeded with vars and runs its
// delegate chain asynchronously. The returned handle addresses the
// instance in both the live scope and the history store.
func (e *Engine) StartInstanceByKey(ctx context.Context, key string, vars map[string]string) (string, error) {
	e.mu.RLock()
	delegates, ok := e.processes[key]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no process registered for key %q", key)
	}

	ex := &Execution{
		instanceID: uuid.NewString(),
		vars:       make(map[string]string, len(vars)),
	}
	for k, v := range vars {
		ex.vars[k] = v
	}

	e.mu.Lock()
	e.live[ex.instanceID] = ex
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(ex, key, delegates)

	return ex.instanceID, nil
}

func (e *Engine) run(ex *Execution, key string, delegates []Delegate) {
	defer e.wg.Done()

	// Detached from the caller: the instance must finish (or time out on
	// its own budget) even if the polling run that started it moves on.
	ctx, cancel := context.WithTimeout(context.Background(), e.execTimeout)
	defer cancel()

	for i, d := range delegates {
		if err := d.Execute(ctx, ex); err != nil {
			e.log.Error().
				Err(err).
				Str("process", key).
				Str("instance_id", ex.instanceID).
				Int("step", i).
				Msg("delegate failed, aborting instance")
			break
		}
	}

	e.archive(ctx, ex)

	e.mu.Lock()
	delete(e.live, ex.instanceID)
	e.mu.Unlock()
}

func (e *Engine) archive(ctx context.Context, ex *Execution) {
	for name, value := range ex.snapshot() {
		if err := e.history.Save(ctx, ex.instanceID, name, value); err != nil {
			e.log.Error().
				Err(err).
				Str("instance_id", ex.instanceID).
				Str("variable", name).
				Msg("failed to archive workflow variable")
		}
	}
}

// IsLive reports whether the instance is still executing.
func (e *Engine) IsLive(instanceID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.live[instanceID]
	return ok
}

// LiveVariable reads a variable from a live instance scope. The second
// return is false when the instance has completed or never set the
// variable.
func (e *Engine) LiveVariable(instanceID, name string) (string, bool) {
	e.mu.RLock()
	ex, ok := e.live[instanceID]
	e.mu.RUnlock()
	if !ok {
		return "", false
	}
	return ex.Variable(name)
}

// HistoricalVariable reads a variable of a completed instance.
func (e *Engine) HistoricalVariable(ctx context.Context, instanceID, name string) (string, error) {
	return e.history.Get(ctx, instanceID, name)
}

// Drain waits for all in-flight instances, used on shutdown and in tests.
func (e *Engine) Drain() {
	e.wg.Wait()
}
