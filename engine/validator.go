package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
	"github.com/isectech/disaster-recovery/domain/service"
)

// validationTimeout is the fixed timeout applied to every validation command.
const validationTimeout = 30 * time.Second

// ValidationReport is the verdict of a completion validation pass. Issues
// never raise; they degrade the execution's terminal status instead.
type ValidationReport struct {
	OK     bool     `json:"ok"`
	Issues []string `json:"issues,omitempty"`
}

// CompletionValidator runs post-recovery checks through the command-execution
// collaborator. A failing command records "Validation failed: <name>". When a
// command succeeds and the validation carries a threshold, the command's
// numeric output must meet it.
type CompletionValidator struct {
	commands service.CommandExecutor
	logger   *zap.Logger
}

// NewCompletionValidator creates a validator
func NewCompletionValidator(commands service.CommandExecutor, logger *zap.Logger) *CompletionValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionValidator{commands: commands, logger: logger}
}

// Validate runs every validation and collects the issues
func (v *CompletionValidator) Validate(ctx context.Context, validations []entity.ProcedureValidation) ValidationReport {
	report := ValidationReport{OK: true}

	for _, validation := range validations {
		output, err := v.commands.Execute(ctx, validation.Command, validationTimeout)
		if err != nil {
			v.logger.Warn("Completion validation failed",
				zap.String("validation", validation.Name),
				zap.String("kind", validation.Kind),
				zap.Error(err))
			report.Issues = append(report.Issues, fmt.Sprintf("Validation failed: %s", validation.Name))
			continue
		}

		if issue := checkThreshold(validation, output); issue != "" {
			v.logger.Warn("Completion validation below threshold",
				zap.String("validation", validation.Name),
				zap.Float64("threshold", validation.Threshold),
				zap.String("output", strings.TrimSpace(output)))
			report.Issues = append(report.Issues, issue)
		}
	}

	report.OK = len(report.Issues) == 0
	return report
}

// checkThreshold compares the command output against the configured
// threshold. Validations without a threshold pass on command success alone.
func checkThreshold(validation entity.ProcedureValidation, output string) string {
	if validation.Threshold <= 0 {
		return ""
	}

	measured, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return fmt.Sprintf("Validation %s returned non-numeric output %q for threshold %v",
			validation.Name, strings.TrimSpace(output), validation.Threshold)
	}
	if measured < validation.Threshold {
		return fmt.Sprintf("Validation %s below threshold: measured %v, required %v",
			validation.Name, measured, validation.Threshold)
	}
	return ""
}
