package entity

import (
	"fmt"
	"time"
)

// ScenarioSeverity represents the severity of a disaster scenario
type ScenarioSeverity string

const (
	ScenarioSeverityLow      ScenarioSeverity = "low"
	ScenarioSeverityMedium   ScenarioSeverity = "medium"
	ScenarioSeverityHigh     ScenarioSeverity = "high"
	ScenarioSeverityCritical ScenarioSeverity = "critical"
)

// TriggerSource identifies what initiated a recovery
type TriggerSource string

const (
	TriggerSourceManual    TriggerSource = "manual"
	TriggerSourceAutomatic TriggerSource = "automatic"
)

// RecoveryStep is a single named action within a recovery procedure.
// Timeout uses the simplified duration notation PT<N><unit> (unit H, M or S).
type RecoveryStep struct {
	Name         string   `json:"name" yaml:"name"`
	Command      string   `json:"command" yaml:"command"`
	Timeout      string   `json:"timeout" yaml:"timeout"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Parallel is a legacy hint kept on the wire format; scheduling is
	// derived from the dependency topology and never reads it.
	Parallel bool `json:"parallel,omitempty" yaml:"parallel,omitempty"`

	// Retry settings. Steps are non-retryable unless opted in.
	Retryable  bool `json:"retryable,omitempty" yaml:"retryable,omitempty"`
	MaxRetries int  `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

// ProcedureValidation is a post-recovery check. When Threshold is set (> 0),
// the validation command's numeric output must be >= Threshold to pass.
type ProcedureValidation struct {
	Name      string  `json:"name" yaml:"name"`
	Kind      string  `json:"kind" yaml:"kind"`
	Command   string  `json:"command" yaml:"command"`
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// RecoveryProcedure is the operator-authored definition of how to recover.
// RollbackSteps carry no dependency information and run strictly in list
// order when the forward procedure fails.
type RecoveryProcedure struct {
	Description   string                `json:"description" yaml:"description"`
	Steps         []RecoveryStep        `json:"steps" yaml:"steps"`
	RollbackSteps []RecoveryStep        `json:"rollback_steps,omitempty" yaml:"rollback_steps,omitempty"`
	Validations   []ProcedureValidation `json:"validations,omitempty" yaml:"validations,omitempty"`
}

// DisasterScenario binds a recovery procedure to a named disaster. Immutable
// once registered. EstimatedRTO/EstimatedRPO are descriptive metadata only
// and are never enforced by the engine.
type DisasterScenario struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Severity     ScenarioSeverity  `json:"severity" yaml:"severity"`
	Procedure    RecoveryProcedure `json:"procedure" yaml:"procedure"`
	EstimatedRTO time.Duration     `json:"estimated_rto,omitempty" yaml:"estimated_rto,omitempty"`
	EstimatedRPO time.Duration     `json:"estimated_rpo,omitempty" yaml:"estimated_rpo,omitempty"`
}

// ProcedureOverride carries caller-supplied replacements applied at trigger
// time. Merge semantics are shallow: a non-nil field replaces the registered
// field wholesale (supplying Steps replaces the entire step list).
type ProcedureOverride struct {
	Description   *string               `json:"description,omitempty"`
	Steps         []RecoveryStep        `json:"steps,omitempty"`
	RollbackSteps []RecoveryStep        `json:"rollback_steps,omitempty"`
	Validations   []ProcedureValidation `json:"validations,omitempty"`
}

// Merge returns the procedure with the override applied field-by-field.
func (o *ProcedureOverride) Merge(base RecoveryProcedure) RecoveryProcedure {
	merged := base
	if o == nil {
		return merged
	}
	if o.Description != nil {
		merged.Description = *o.Description
	}
	if o.Steps != nil {
		merged.Steps = o.Steps
	}
	if o.RollbackSteps != nil {
		merged.RollbackSteps = o.RollbackSteps
	}
	if o.Validations != nil {
		merged.Validations = o.Validations
	}
	return merged
}

// Validate checks the scenario's structural invariants: a non-empty id and
// name, unique step names, non-empty commands, and dependency names that
// resolve within the same procedure. Cycles are left to the scheduler.
func (s *DisasterScenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("scenario %s: name is required", s.ID)
	}
	if len(s.Procedure.Steps) == 0 {
		return fmt.Errorf("scenario %s: procedure has no steps", s.ID)
	}

	names := make(map[string]struct{}, len(s.Procedure.Steps))
	for _, step := range s.Procedure.Steps {
		if step.Name == "" {
			return fmt.Errorf("scenario %s: step with empty name", s.ID)
		}
		if step.Command == "" {
			return fmt.Errorf("scenario %s: step %s has no command", s.ID, step.Name)
		}
		if _, exists := names[step.Name]; exists {
			return fmt.Errorf("scenario %s: duplicate step name %s", s.ID, step.Name)
		}
		names[step.Name] = struct{}{}
	}

	for _, step := range s.Procedure.Steps {
		for _, dep := range step.Dependencies {
			if _, ok := names[dep]; !ok {
				return fmt.Errorf("scenario %s: step %s depends on unknown step %s", s.ID, step.Name, dep)
			}
		}
	}

	for _, step := range s.Procedure.RollbackSteps {
		if step.Name == "" || step.Command == "" {
			return fmt.Errorf("scenario %s: rollback step requires name and command", s.ID)
		}
	}

	return nil
}
