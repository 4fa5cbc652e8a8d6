package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
	"github.com/isectech/disaster-recovery/domain/service"
)

const (
	// DefaultStepTimeout applies when a step's timeout string cannot be parsed.
	DefaultStepTimeout = 5 * time.Minute

	defaultMaxRetries      = 2
	initialRetryInterval   = 2 * time.Second
	maxRetryInterval       = 30 * time.Second
	retryBackoffMultiplier = 2.0
)

// StepExecutor runs a single recovery step: it parses the step's timeout,
// appends the ledger entry, delegates to the command-execution collaborator
// and records the outcome. Steps marked retryable are retried with bounded
// exponential backoff before being declared failed.
type StepExecutor struct {
	commands service.CommandExecutor
	metrics  *RecoveryMetrics
	logger   *zap.Logger

	retryInitialInterval time.Duration
	retryMaxInterval     time.Duration
}

// NewStepExecutor creates a step executor
func NewStepExecutor(commands service.CommandExecutor, metrics *RecoveryMetrics, logger *zap.Logger) *StepExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StepExecutor{
		commands:             commands,
		metrics:              metrics,
		logger:               logger,
		retryInitialInterval: initialRetryInterval,
		retryMaxInterval:     maxRetryInterval,
	}
}

// Run executes one step against the execution's ledger. The ledger entry is
// appended with status running before the command executor is invoked, so
// failed attempts stay recorded. The returned error feeds the level's join
// barrier.
func (x *StepExecutor) Run(ctx context.Context, step entity.RecoveryStep, execution *entity.RecoveryExecution) error {
	timeout := ParseStepTimeout(step.Timeout)
	logger := x.logger.With(
		zap.String("execution_id", execution.ID),
		zap.String("step", step.Name))

	executed := execution.AppendStep(&entity.ExecutedStep{
		Step:      step,
		StartTime: time.Now().UTC(),
		Status:    entity.StepStatusRunning,
	})

	logger.Info("Executing recovery step",
		zap.String("command", step.Command),
		zap.Duration("timeout", timeout))
	started := time.Now()

	output, err := x.execute(ctx, step, execution, executed, timeout, logger)
	if err != nil {
		execution.MarkStepFailed(executed, err)
		x.metrics.ObserveStep(string(entity.StepStatusFailed), time.Since(started))
		logger.Error("Recovery step failed",
			zap.Int("retries", executed.RetryCount),
			zap.Error(err))
		return err
	}

	execution.MarkStepCompleted(executed, output)
	x.metrics.ObserveStep(string(entity.StepStatusCompleted), time.Since(started))
	logger.Info("Recovery step completed", zap.Duration("duration", time.Since(started)))
	return nil
}

// execute performs the command invocation, retrying when the step opts in.
func (x *StepExecutor) execute(ctx context.Context, step entity.RecoveryStep, execution *entity.RecoveryExecution, executed *entity.ExecutedStep, timeout time.Duration, logger *zap.Logger) (string, error) {
	if !step.Retryable {
		return x.commands.Execute(ctx, step.Command, timeout)
	}

	maxRetries := step.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = x.retryInitialInterval
	policy.MaxInterval = x.retryMaxInterval
	policy.Multiplier = retryBackoffMultiplier

	var output string
	operation := func() error {
		out, err := x.commands.Execute(ctx, step.Command, timeout)
		if err != nil {
			return err
		}
		output = out
		return nil
	}

	notify := func(err error, next time.Duration) {
		execution.MarkStepRetrying(executed, err)
		logger.Warn("Recovery step attempt failed, retrying",
			zap.Int("retry_count", executed.RetryCount),
			zap.Int("max_retries", maxRetries),
			zap.Duration("next_attempt_in", next),
			zap.Error(err))
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx),
		notify)
	return output, err
}

// ParseStepTimeout parses the simplified duration notation PT<N><unit> with
// unit H, M or S. Unparseable strings fall back to the 5 minute default.
func ParseStepTimeout(raw string) time.Duration {
	if !strings.HasPrefix(raw, "PT") || len(raw) < 4 {
		return DefaultStepTimeout
	}

	body := raw[2:]
	unit := body[len(body)-1]
	value, err := strconv.Atoi(body[:len(body)-1])
	if err != nil || value < 0 {
		return DefaultStepTimeout
	}

	switch unit {
	case 'H':
		return time.Duration(value) * time.Hour
	case 'M':
		return time.Duration(value) * time.Minute
	case 'S':
		return time.Duration(value) * time.Second
	default:
		return DefaultStepTimeout
	}
}
