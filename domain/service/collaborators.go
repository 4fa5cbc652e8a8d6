package service

import (
	"context"
	"time"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// CommandExecutor runs a recovery command against real infrastructure
// (shell, cloud CLI, API call). Timeout enforcement is the executor's
// responsibility; the engine never forcibly interrupts a step that ignores
// its timeout.
type CommandExecutor interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (string, error)
}

// NotificationSink receives lifecycle notifications for an execution. Calls
// are fire-and-forget: sink failures must never affect the orchestration
// outcome. The executions handed to a sink are detached snapshots.
type NotificationSink interface {
	OnStarted(execution *entity.RecoveryExecution)
	OnSucceeded(execution *entity.RecoveryExecution)
	OnPartial(execution *entity.RecoveryExecution, issues []string)
	OnFailed(execution *entity.RecoveryExecution, err error)
}

// ScenarioSource supplies disaster scenario definitions to the registry at
// process start. File, database and API backed sources all satisfy this.
type ScenarioSource interface {
	Load(ctx context.Context) ([]entity.DisasterScenario, error)
}
