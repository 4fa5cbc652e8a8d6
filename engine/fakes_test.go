package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// fakeCall records one command executor invocation
type fakeCall struct {
	Command string
	Timeout time.Duration
}

// fakeResult configures the outcome for a command
type fakeResult struct {
	Output string
	Err    error
}

// fakeExecutor is a scriptable command executor. Unscripted commands succeed
// with a generic output.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []fakeCall
	results map[string]fakeResult
	delays  map[string]time.Duration

	// failures counts down per command: the command fails while the counter
	// is positive, then succeeds. Used for retry tests.
	failures map[string]int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		results:  make(map[string]fakeResult),
		delays:   make(map[string]time.Duration),
		failures: make(map[string]int),
	}
}

func (f *fakeExecutor) failWith(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[command] = fakeResult{Err: err}
}

func (f *fakeExecutor) succeedWith(command, output string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[command] = fakeResult{Output: output}
}

func (f *fakeExecutor) delay(command string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[command] = d
}

func (f *fakeExecutor) failFirst(command string, attempts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[command] = attempts
}

func (f *fakeExecutor) Execute(ctx context.Context, command string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Command: command, Timeout: timeout})
	delay := f.delays[command]
	result, scripted := f.results[command]
	remaining := f.failures[command]
	if remaining > 0 {
		f.failures[command] = remaining - 1
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if remaining > 0 {
		return "", fmt.Errorf("transient failure of %s", command)
	}
	if scripted {
		return result.Output, result.Err
	}
	return "ok", nil
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Command
	}
	return out
}

func (f *fakeExecutor) executed(command string) bool {
	for _, c := range f.commands() {
		if c == command {
			return true
		}
	}
	return false
}

// recordingSink captures notification callbacks synchronously
type recordingSink struct {
	mu        sync.Mutex
	started   []string
	succeeded []string
	partial   map[string][]string
	failed    map[string]error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		partial: make(map[string][]string),
		failed:  make(map[string]error),
	}
}

func (r *recordingSink) OnStarted(e *entity.RecoveryExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, e.ID)
}

func (r *recordingSink) OnSucceeded(e *entity.RecoveryExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.succeeded = append(r.succeeded, e.ID)
}

func (r *recordingSink) OnPartial(e *entity.RecoveryExecution, issues []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partial[e.ID] = issues
}

func (r *recordingSink) OnFailed(e *entity.RecoveryExecution, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[e.ID] = err
}

// step is a test helper for building recovery steps
func step(name, command string, deps ...string) entity.RecoveryStep {
	return entity.RecoveryStep{
		Name:         name,
		Command:      command,
		Timeout:      "PT30S",
		Dependencies: deps,
	}
}
