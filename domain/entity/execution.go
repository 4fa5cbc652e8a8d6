package entity

import (
	"sync"
	"time"
)

// ExecutionStatus represents the overall status of a recovery execution
type ExecutionStatus string

const (
	ExecutionStatusInProgress         ExecutionStatus = "in_progress"
	ExecutionStatusCompleted          ExecutionStatus = "completed"
	ExecutionStatusFailed             ExecutionStatus = "failed"
	ExecutionStatusPartiallyCompleted ExecutionStatus = "partially_completed"
	ExecutionStatusRolledBack         ExecutionStatus = "rolled_back"
)

// Terminal reports whether the status is a terminal state.
func (s ExecutionStatus) Terminal() bool {
	return s != ExecutionStatusInProgress
}

// StepStatus represents the status of a single executed step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusRetrying  StepStatus = "retrying"
)

// ExecutedStep is a ledger entry for one step attempt. It is appended the
// moment execution begins and is never removed, so failed and skipped steps
// stay visible in the execution history.
type ExecutedStep struct {
	Step       RecoveryStep `json:"step"`
	StartTime  time.Time    `json:"start_time"`
	EndTime    *time.Time   `json:"end_time,omitempty"`
	Status     StepStatus   `json:"status"`
	Output     string       `json:"output,omitempty"`
	Error      string       `json:"error,omitempty"`
	RetryCount int          `json:"retry_count"`
}

// ExecutionMetrics tracks progress counters for an execution
type ExecutionMetrics struct {
	StepsCompleted     int `json:"steps_completed"`
	StepsTotal         int `json:"steps_total"`
	StepsFailed        int `json:"steps_failed"`
	RollbackStepsTotal int `json:"rollback_steps_total"`
}

// RollbackPlan records the compensation attempt for a failed execution.
// Executed becomes true the instant rollback is attempted, independent of
// whether it ultimately succeeds.
type RollbackPlan struct {
	Reason   string         `json:"reason"`
	Steps    []RecoveryStep `json:"steps"`
	Executed bool           `json:"executed"`
	Success  bool           `json:"success"`
}

// RecoveryExecution is the supervised run of one scenario's procedure. All
// mutation goes through the methods below; the steps ledger and metrics are
// appended to concurrently by the steps of a level.
type RecoveryExecution struct {
	ID           string            `json:"id"`
	Scenario     DisasterScenario  `json:"scenario"`
	Source       TriggerSource     `json:"source"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time,omitempty"`
	Status       ExecutionStatus   `json:"status"`
	Steps        []*ExecutedStep   `json:"steps"`
	Metrics      ExecutionMetrics  `json:"metrics"`
	RollbackPlan *RollbackPlan     `json:"rollback_plan,omitempty"`

	mu sync.RWMutex
}

// NewRecoveryExecution creates an in-progress execution for the scenario.
func NewRecoveryExecution(id string, scenario DisasterScenario, source TriggerSource) *RecoveryExecution {
	return &RecoveryExecution{
		ID:        id,
		Scenario:  scenario,
		Source:    source,
		StartTime: time.Now().UTC(),
		Status:    ExecutionStatusInProgress,
		Steps:     make([]*ExecutedStep, 0, len(scenario.Procedure.Steps)),
		Metrics: ExecutionMetrics{
			StepsTotal: len(scenario.Procedure.Steps),
		},
	}
}

// AppendStep adds a ledger entry and returns it for in-place updates by the
// executor that owns the attempt.
func (e *RecoveryExecution) AppendStep(step *ExecutedStep) *ExecutedStep {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Steps = append(e.Steps, step)
	return step
}

// MarkStepCompleted finalizes a ledger entry as completed and bumps the
// completion counter.
func (e *RecoveryExecution) MarkStepCompleted(step *ExecutedStep, output string) {
	now := time.Now().UTC()
	e.mu.Lock()
	defer e.mu.Unlock()
	step.Status = StepStatusCompleted
	step.Output = output
	step.EndTime = &now
	e.Metrics.StepsCompleted++
}

// MarkStepFailed finalizes a ledger entry as failed.
func (e *RecoveryExecution) MarkStepFailed(step *ExecutedStep, err error) {
	now := time.Now().UTC()
	e.mu.Lock()
	defer e.mu.Unlock()
	step.Status = StepStatusFailed
	step.Error = err.Error()
	step.EndTime = &now
	e.Metrics.StepsFailed++
}

// MarkStepRetrying records a failed attempt that will be retried.
func (e *RecoveryExecution) MarkStepRetrying(step *ExecutedStep, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	step.Status = StepStatusRetrying
	step.Error = err.Error()
	step.RetryCount++
}

// SetStatus transitions the overall status. Terminal states also stamp
// EndTime exactly once.
func (e *RecoveryExecution) SetStatus(status ExecutionStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Status = status
	if status.Terminal() && e.EndTime == nil {
		now := time.Now().UTC()
		e.EndTime = &now
	}
}

// StampEnd sets EndTime without changing the status. Used when a trigger is
// about to fail before the execution ever progressed past creation.
func (e *RecoveryExecution) StampEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.EndTime == nil {
		now := time.Now().UTC()
		e.EndTime = &now
	}
}

// CurrentStatus returns the status under the read lock.
func (e *RecoveryExecution) CurrentStatus() ExecutionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Status
}

// AttachRollbackPlan attaches the compensation plan to the execution and
// marks it executed: attaching is the attempt.
func (e *RecoveryExecution) AttachRollbackPlan(plan *RollbackPlan) {
	e.mu.Lock()
	defer e.mu.Unlock()
	plan.Executed = true
	e.RollbackPlan = plan
	e.Metrics.RollbackStepsTotal = len(plan.Steps)
}

// MarkRollbackSucceeded records that every compensation step completed.
func (e *RecoveryExecution) MarkRollbackSucceeded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.RollbackPlan != nil {
		e.RollbackPlan.Success = true
	}
}

// Clone returns a deep copy taken under the lock. Callers that hand an
// execution to code outside the trigger's flow of control (serialization,
// sinks) must use the clone: the original's ledger and metrics keep mutating
// while steps run.
func (e *RecoveryExecution) Clone() *RecoveryExecution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := &RecoveryExecution{
		ID:        e.ID,
		Scenario:  e.Scenario,
		Source:    e.Source,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Status:    e.Status,
		Metrics:   e.Metrics,
		Steps:     make([]*ExecutedStep, len(e.Steps)),
	}
	for i, s := range e.Steps {
		copied := *s
		out.Steps[i] = &copied
	}
	if e.RollbackPlan != nil {
		plan := *e.RollbackPlan
		out.RollbackPlan = &plan
	}
	return out
}

// Snapshot returns copies of the counters and ledger length for reporting
// without holding the lock at the caller.
func (e *RecoveryExecution) Snapshot() (ExecutionMetrics, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Metrics, len(e.Steps)
}

// StepsByStatus returns the ledger entries currently in the given status.
func (e *RecoveryExecution) StepsByStatus(status StepStatus) []*ExecutedStep {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []*ExecutedStep
	for _, s := range e.Steps {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}
