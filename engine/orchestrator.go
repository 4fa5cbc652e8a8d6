package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/isectech/disaster-recovery/domain/entity"
	"github.com/isectech/disaster-recovery/domain/service"
)

// RecoveryOrchestrator composes the registry, scheduler, step executor,
// completion validator and rollback engine into the supervised execution of
// a disaster scenario. It owns the execution lifecycle, the in-memory
// execution history and per-scenario admission control.
type RecoveryOrchestrator struct {
	registry  *ScenarioRegistry
	scheduler *DependencyScheduler
	steps     *StepExecutor
	validator *CompletionValidator
	rollback  *RollbackEngine
	notifier  service.NotificationSink
	metrics   *RecoveryMetrics
	logger    *zap.Logger

	// Execution history, id-keyed, kept for the lifetime of the process.
	// Archival/eviction is an extension point, not implemented here.
	executions   map[string]*entity.RecoveryExecution
	executionIDs []string
	executionsMu sync.RWMutex

	// Admission control: at most one in-progress execution per scenario id.
	inFlight   map[string]string
	inFlightMu sync.Mutex
}

// NewRecoveryOrchestrator wires an orchestrator from its components
func NewRecoveryOrchestrator(
	registry *ScenarioRegistry,
	commands service.CommandExecutor,
	notifier service.NotificationSink,
	metrics *RecoveryMetrics,
	logger *zap.Logger,
) *RecoveryOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	stepExecutor := NewStepExecutor(commands, metrics, logger)

	return &RecoveryOrchestrator{
		registry:   registry,
		scheduler:  NewDependencyScheduler(logger),
		steps:      stepExecutor,
		validator:  NewCompletionValidator(commands, logger),
		rollback:   NewRollbackEngine(stepExecutor, metrics, logger),
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		executions: make(map[string]*entity.RecoveryExecution),
		inFlight:   make(map[string]string),
	}
}

// Trigger starts the recovery for a scenario and supervises it to a terminal
// state. The returned execution is also retrievable via Status for as long
// as the process lives. Overrides replace procedure fields wholesale.
//
// Failures surface synchronously: an unknown scenario or unresolvable
// dependency graph aborts before any step runs, and a failed level's
// aggregated error is returned even when rollback succeeds afterwards.
func (o *RecoveryOrchestrator) Trigger(ctx context.Context, scenarioID string, source entity.TriggerSource, override *entity.ProcedureOverride) (*entity.RecoveryExecution, error) {
	scenario, err := o.registry.Get(scenarioID)
	if err != nil {
		return nil, err
	}
	scenario.Procedure = override.Merge(scenario.Procedure)

	if err := o.admit(scenarioID); err != nil {
		return nil, err
	}
	defer o.release(scenarioID)

	execution := entity.NewRecoveryExecution(uuid.New().String(), scenario, source)
	o.store(execution)
	lifecycle := newExecutionLifecycle(execution, o.logger)

	logger := o.logger.With(
		zap.String("execution_id", execution.ID),
		zap.String("scenario_id", scenarioID))
	logger.Info("Recovery triggered",
		zap.String("source", string(source)),
		zap.String("severity", string(scenario.Severity)),
		zap.Int("steps_total", execution.Metrics.StepsTotal))
	o.notifyStarted(execution)

	levels, err := o.scheduler.PlanLevels(scenario.Procedure.Steps)
	if err != nil {
		// The execution stays registered but never progresses past creation.
		execution.StampEnd()
		logger.Error("Recovery plan is unresolvable", zap.Error(err))
		return execution, err
	}

	if err := o.runLevels(ctx, lifecycle, execution, levels, logger); err != nil {
		return execution, err
	}

	report := o.validator.Validate(ctx, scenario.Procedure.Validations)
	if report.OK {
		lifecycle.fire(ctx, eventComplete)
		o.metrics.ObserveExecution(string(entity.ExecutionStatusCompleted), time.Since(execution.StartTime))
		logger.Info("Recovery completed",
			zap.Int("steps_completed", execution.Metrics.StepsCompleted))
		o.notifySucceeded(execution)
		return execution, nil
	}

	lifecycle.fire(ctx, eventCompletePartial)
	o.metrics.ObserveExecution(string(entity.ExecutionStatusPartiallyCompleted), time.Since(execution.StartTime))
	o.metrics.AddValidationIssues(len(report.Issues))
	logger.Warn("Recovery partially completed",
		zap.Strings("issues", report.Issues))
	o.notifyPartial(execution, report.Issues)
	return execution, nil
}

// runLevels executes the planned levels in order. Steps within one level are
// dispatched together and joined before the next level starts; a failing
// level aborts all subsequent levels, drives the failure path and returns
// the aggregated error.
func (o *RecoveryOrchestrator) runLevels(ctx context.Context, lifecycle *executionLifecycle, execution *entity.RecoveryExecution, levels [][]entity.RecoveryStep, logger *zap.Logger) error {
	for i, level := range levels {
		// errgroup without a derived context: steps already dispatched in
		// this level settle on their own, there is no cancellation.
		var group errgroup.Group
		failures := make([]error, len(level))
		for j, step := range level {
			j, step := j, step
			group.Go(func() error {
				err := o.steps.Run(ctx, step, execution)
				failures[j] = err
				return err
			})
		}
		firstErr := group.Wait()
		if firstErr == nil {
			continue
		}

		failed := 0
		for _, err := range failures {
			if err != nil {
				failed++
			}
		}
		disasterErr := entity.ErrStepExecutionFailed(failed, len(level), firstErr)
		logger.Error("Recovery level failed",
			zap.Int("level", i),
			zap.Int("failed", failed),
			zap.Int("dispatched", len(level)),
			zap.Int("levels_skipped", len(levels)-i-1))

		o.failAndCompensate(ctx, lifecycle, execution, disasterErr, logger)
		return disasterErr
	}
	return nil
}

// failAndCompensate drives the failure path: mark the execution failed,
// notify, and run compensation when the scenario defines rollback steps.
// Rollback success upgrades the terminal status to rolled_back; rollback
// failure leaves it failed. Either way the original disaster error is what
// propagates to the Trigger caller.
func (o *RecoveryOrchestrator) failAndCompensate(ctx context.Context, lifecycle *executionLifecycle, execution *entity.RecoveryExecution, disasterErr error, logger *zap.Logger) {
	lifecycle.fire(ctx, eventFail)
	o.notifyFailed(execution, disasterErr)

	if len(execution.Scenario.Procedure.RollbackSteps) == 0 {
		o.metrics.ObserveExecution(string(entity.ExecutionStatusFailed), time.Since(execution.StartTime))
		return
	}

	if err := o.rollback.Run(ctx, execution, disasterErr.Error()); err != nil {
		logger.Error("Rollback failed", zap.Error(err))
		o.metrics.ObserveExecution(string(entity.ExecutionStatusFailed), time.Since(execution.StartTime))
		return
	}

	lifecycle.fire(ctx, eventRollBack)
	o.metrics.ObserveExecution(string(entity.ExecutionStatusRolledBack), time.Since(execution.StartTime))
}

// Status returns the execution with the given id, or every registered
// execution in trigger order when id is empty. Executions are returned as
// deep snapshots: an in-flight trigger keeps mutating the live object, and
// callers serialize the result outside the engine's locks.
func (o *RecoveryOrchestrator) Status(id string) ([]*entity.RecoveryExecution, error) {
	o.executionsMu.RLock()
	defer o.executionsMu.RUnlock()

	if id != "" {
		execution, ok := o.executions[id]
		if !ok {
			return nil, entity.NewRecoveryErrorWithDetails(entity.ErrCodeUnknownExecution,
				"no execution with the given id", id)
		}
		return []*entity.RecoveryExecution{execution.Clone()}, nil
	}

	out := make([]*entity.RecoveryExecution, 0, len(o.executionIDs))
	for _, executionID := range o.executionIDs {
		out = append(out, o.executions[executionID].Clone())
	}
	return out, nil
}

// TestProcedures dry-runs the completion validations of every registered
// scenario, keyed by scenario id. Used for periodic self-checks.
func (o *RecoveryOrchestrator) TestProcedures(ctx context.Context) map[string]ValidationReport {
	scenarios := o.registry.List()
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })

	reports := make(map[string]ValidationReport, len(scenarios))
	for _, scenario := range scenarios {
		reports[scenario.ID] = o.validator.Validate(ctx, scenario.Procedure.Validations)
	}
	return reports
}

// admit reserves the scenario for a single in-flight execution.
func (o *RecoveryOrchestrator) admit(scenarioID string) error {
	o.inFlightMu.Lock()
	defer o.inFlightMu.Unlock()
	if executionID, busy := o.inFlight[scenarioID]; busy {
		return entity.ErrRecoveryInProgress(scenarioID, executionID)
	}
	o.inFlight[scenarioID] = "" // reserved before the execution id exists
	return nil
}

func (o *RecoveryOrchestrator) release(scenarioID string) {
	o.inFlightMu.Lock()
	defer o.inFlightMu.Unlock()
	delete(o.inFlight, scenarioID)
}

func (o *RecoveryOrchestrator) store(execution *entity.RecoveryExecution) {
	o.executionsMu.Lock()
	defer o.executionsMu.Unlock()
	o.executions[execution.ID] = execution
	o.executionIDs = append(o.executionIDs, execution.ID)

	o.inFlightMu.Lock()
	o.inFlight[execution.Scenario.ID] = execution.ID
	o.inFlightMu.Unlock()
}

// Notification wrappers: the sink is optional and strictly observational.
// Sinks get detached snapshots because delivery may happen asynchronously,
// after the execution has moved on.

func (o *RecoveryOrchestrator) notifyStarted(execution *entity.RecoveryExecution) {
	if o.notifier != nil {
		o.notifier.OnStarted(execution.Clone())
	}
}

func (o *RecoveryOrchestrator) notifySucceeded(execution *entity.RecoveryExecution) {
	if o.notifier != nil {
		o.notifier.OnSucceeded(execution.Clone())
	}
}

func (o *RecoveryOrchestrator) notifyPartial(execution *entity.RecoveryExecution, issues []string) {
	if o.notifier != nil {
		o.notifier.OnPartial(execution.Clone(), issues)
	}
}

func (o *RecoveryOrchestrator) notifyFailed(execution *entity.RecoveryExecution, err error) {
	if o.notifier != nil {
		o.notifier.OnFailed(execution.Clone(), err)
	}
}
