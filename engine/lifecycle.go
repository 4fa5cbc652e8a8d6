package engine

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// Lifecycle events for a recovery execution
const (
	eventComplete        = "complete"
	eventCompletePartial = "complete_partial"
	eventFail            = "fail"
	eventRollBack        = "roll_back"
)

// executionLifecycle drives an execution's status through its legal
// transitions. in_progress is the only non-terminal state; failed may still
// transition to rolled_back when compensation completes cleanly.
type executionLifecycle struct {
	machine   *fsm.FSM
	execution *entity.RecoveryExecution
	logger    *zap.Logger
}

func newExecutionLifecycle(execution *entity.RecoveryExecution, logger *zap.Logger) *executionLifecycle {
	l := &executionLifecycle{
		execution: execution,
		logger:    logger,
	}

	l.machine = fsm.NewFSM(
		string(entity.ExecutionStatusInProgress),
		fsm.Events{
			{Name: eventComplete, Src: []string{string(entity.ExecutionStatusInProgress)}, Dst: string(entity.ExecutionStatusCompleted)},
			{Name: eventCompletePartial, Src: []string{string(entity.ExecutionStatusInProgress)}, Dst: string(entity.ExecutionStatusPartiallyCompleted)},
			{Name: eventFail, Src: []string{string(entity.ExecutionStatusInProgress)}, Dst: string(entity.ExecutionStatusFailed)},
			{Name: eventRollBack, Src: []string{string(entity.ExecutionStatusFailed)}, Dst: string(entity.ExecutionStatusRolledBack)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				l.execution.SetStatus(entity.ExecutionStatus(e.Dst))
				l.logger.Info("Execution status changed",
					zap.String("execution_id", l.execution.ID),
					zap.String("from", e.Src),
					zap.String("to", e.Dst))
			},
		},
	)
	return l
}

// fire transitions the lifecycle. Illegal transitions are programming errors
// and are logged rather than propagated; the execution's recorded status is
// authoritative for callers.
func (l *executionLifecycle) fire(ctx context.Context, event string) {
	if err := l.machine.Event(ctx, event); err != nil {
		l.logger.Error("Illegal execution status transition",
			zap.String("execution_id", l.execution.ID),
			zap.String("event", event),
			zap.String("current", l.machine.Current()),
			zap.Error(err))
	}
}
