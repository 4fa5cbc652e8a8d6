package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DryRunExecutor is the command executor wired by default. It records what
// would have run and succeeds immediately. Real infrastructure invocation
// (shell, cloud CLI) is a separate integration that replaces this at wiring
// time.
type DryRunExecutor struct {
	logger *zap.Logger
}

// NewDryRunExecutor creates a dry-run executor
func NewDryRunExecutor(logger *zap.Logger) *DryRunExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunExecutor{logger: logger}
}

// Execute logs the command instead of running it
func (e *DryRunExecutor) Execute(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.logger.Info("Dry-run command",
		zap.String("command", command),
		zap.Duration("timeout", timeout))
	return fmt.Sprintf("dry-run: %s", command), nil
}
