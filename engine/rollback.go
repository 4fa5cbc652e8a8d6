package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// RollbackEngine runs a scenario's compensating steps when the forward
// procedure fails. Rollback steps carry no dependency information and run
// strictly sequentially in list order, appending to the same step ledger as
// the forward steps.
type RollbackEngine struct {
	steps   *StepExecutor
	metrics *RecoveryMetrics
	logger  *zap.Logger
}

// NewRollbackEngine creates a rollback engine
func NewRollbackEngine(steps *StepExecutor, metrics *RecoveryMetrics, logger *zap.Logger) *RollbackEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollbackEngine{steps: steps, metrics: metrics, logger: logger}
}

// Run attaches a RollbackPlan to the execution and executes the scenario's
// rollback steps. The plan's Executed flag is set the instant rollback is
// attempted. The first failing step aborts the run: the remaining steps are
// recorded as skipped and a ROLLBACK_FAILED error is returned, leaving
// Success false.
func (r *RollbackEngine) Run(ctx context.Context, execution *entity.RecoveryExecution, reason string) error {
	rollbackSteps := execution.Scenario.Procedure.RollbackSteps
	plan := &entity.RollbackPlan{
		Reason: reason,
		Steps:  rollbackSteps,
	}
	execution.AttachRollbackPlan(plan)

	logger := r.logger.With(zap.String("execution_id", execution.ID))
	logger.Warn("Starting rollback",
		zap.String("reason", reason),
		zap.Int("rollback_steps", len(rollbackSteps)))

	for i, step := range rollbackSteps {
		if err := r.steps.Run(ctx, step, execution); err != nil {
			r.markSkipped(execution, rollbackSteps[i+1:])
			r.metrics.ObserveRollback(false)
			logger.Error("Rollback aborted",
				zap.String("step", step.Name),
				zap.Int("skipped_steps", len(rollbackSteps)-i-1),
				zap.Error(err))
			return entity.ErrRollbackFailed(step.Name, err)
		}
	}

	execution.MarkRollbackSucceeded()
	r.metrics.ObserveRollback(true)
	logger.Info("Rollback completed", zap.Int("rollback_steps", len(rollbackSteps)))
	return nil
}

// markSkipped records the rollback steps that never ran.
func (r *RollbackEngine) markSkipped(execution *entity.RecoveryExecution, skipped []entity.RecoveryStep) {
	now := time.Now().UTC()
	for _, step := range skipped {
		execution.AppendStep(&entity.ExecutedStep{
			Step:      step,
			StartTime: now,
			EndTime:   &now,
			Status:    entity.StepStatusSkipped,
		})
	}
}
