package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executionWithLedger() *RecoveryExecution {
	scenario := DisasterScenario{
		ID:        "scn",
		Name:      "scenario",
		Severity:  ScenarioSeverityHigh,
		Procedure: baseProcedure(),
	}
	execution := NewRecoveryExecution("exec-1", scenario, TriggerSourceManual)
	execution.AppendStep(&ExecutedStep{
		Step:      scenario.Procedure.Steps[0],
		StartTime: time.Now().UTC(),
		Status:    StepStatusRunning,
	})
	return execution
}

func TestCloneIsDeep(t *testing.T) {
	execution := executionWithLedger()
	clone := execution.Clone()

	// Mutations on the original must not show through the clone.
	execution.MarkStepCompleted(execution.Steps[0], "done")
	execution.SetStatus(ExecutionStatusCompleted)

	assert.Equal(t, ExecutionStatusInProgress, clone.Status)
	assert.Nil(t, clone.EndTime)
	require.Len(t, clone.Steps, 1)
	assert.Equal(t, StepStatusRunning, clone.Steps[0].Status)
	assert.Empty(t, clone.Steps[0].Output)
	assert.Equal(t, 0, clone.Metrics.StepsCompleted)

	// And the other way around: the clone is a free-standing copy.
	clone.Steps[0].Status = StepStatusFailed
	assert.Equal(t, StepStatusCompleted, execution.Steps[0].Status)
}

func TestCloneCopiesRollbackPlan(t *testing.T) {
	execution := executionWithLedger()
	execution.AttachRollbackPlan(&RollbackPlan{
		Reason: "step A failed",
		Steps:  execution.Scenario.Procedure.RollbackSteps,
	})

	clone := execution.Clone()
	execution.MarkRollbackSucceeded()

	require.NotNil(t, clone.RollbackPlan)
	assert.True(t, clone.RollbackPlan.Executed, "attaching the plan marks it executed")
	assert.False(t, clone.RollbackPlan.Success)
	assert.True(t, execution.RollbackPlan.Success)
}

func TestAttachRollbackPlanMarksExecuted(t *testing.T) {
	execution := executionWithLedger()
	plan := &RollbackPlan{Reason: "boom", Steps: nil}
	execution.AttachRollbackPlan(plan)

	assert.True(t, plan.Executed)
	assert.False(t, plan.Success)
	assert.Equal(t, 0, execution.Metrics.RollbackStepsTotal)
}

func TestMarkStepFailedRecordsError(t *testing.T) {
	execution := executionWithLedger()
	execution.MarkStepFailed(execution.Steps[0], errors.New("attach refused"))

	step := execution.Steps[0]
	assert.Equal(t, StepStatusFailed, step.Status)
	assert.Equal(t, "attach refused", step.Error)
	assert.NotNil(t, step.EndTime)
	assert.Equal(t, 1, execution.Metrics.StepsFailed)
}
