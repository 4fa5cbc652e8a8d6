package notification

import (
	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// LogSink is the notification sink shipped with the service: it writes every
// execution lifecycle event to the structured log. Human-facing delivery
// channels (email, chat, paging) live behind their own sinks outside this
// service.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a logging sink
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// OnStarted logs the start of an execution
func (s *LogSink) OnStarted(execution *entity.RecoveryExecution) {
	s.logger.Info("Recovery started",
		zap.String("execution_id", execution.ID),
		zap.String("scenario_id", execution.Scenario.ID),
		zap.String("scenario", execution.Scenario.Name),
		zap.String("source", string(execution.Source)),
		zap.Int("steps_total", execution.Metrics.StepsTotal))
}

// OnSucceeded logs a clean completion
func (s *LogSink) OnSucceeded(execution *entity.RecoveryExecution) {
	metrics, _ := execution.Snapshot()
	s.logger.Info("Recovery succeeded",
		zap.String("execution_id", execution.ID),
		zap.String("scenario_id", execution.Scenario.ID),
		zap.Int("steps_completed", metrics.StepsCompleted))
}

// OnPartial logs a completion degraded by validation issues
func (s *LogSink) OnPartial(execution *entity.RecoveryExecution, issues []string) {
	s.logger.Warn("Recovery partially completed",
		zap.String("execution_id", execution.ID),
		zap.String("scenario_id", execution.Scenario.ID),
		zap.Strings("issues", issues))
}

// OnFailed logs an execution failure
func (s *LogSink) OnFailed(execution *entity.RecoveryExecution, err error) {
	metrics, _ := execution.Snapshot()
	s.logger.Error("Recovery failed",
		zap.String("execution_id", execution.ID),
		zap.String("scenario_id", execution.Scenario.ID),
		zap.Int("steps_completed", metrics.StepsCompleted),
		zap.Int("steps_failed", metrics.StepsFailed),
		zap.Error(err))
}
