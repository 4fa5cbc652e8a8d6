package engine

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// DependencyScheduler converts a step list into an ordered sequence of
// levels. Each level is a set of steps whose dependencies are all satisfied
// by earlier levels and may therefore run concurrently. The Parallel hint on
// individual steps is never consulted; concurrency derives purely from the
// dependency topology.
type DependencyScheduler struct {
	logger *zap.Logger
}

// NewDependencyScheduler creates a scheduler
func NewDependencyScheduler(logger *zap.Logger) *DependencyScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DependencyScheduler{logger: logger}
}

// PlanLevels groups the steps into execution levels via topological
// leveling. When no progress can be made while steps remain ungrouped, the
// stall is diagnosed as either UNKNOWN_DEPENDENCY (a dependency names a step
// that does not exist) or DEPENDENCY_CYCLE (every name resolves, so the
// remaining steps form a cycle).
func (s *DependencyScheduler) PlanLevels(steps []entity.RecoveryStep) ([][]entity.RecoveryStep, error) {
	if len(steps) == 0 {
		return nil, nil
	}

	known := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		known[step.Name] = struct{}{}
	}

	satisfied := make(map[string]struct{}, len(steps))
	remaining := make([]entity.RecoveryStep, len(steps))
	copy(remaining, steps)

	var levels [][]entity.RecoveryStep
	for len(remaining) > 0 {
		var level []entity.RecoveryStep
		var next []entity.RecoveryStep
		for _, step := range remaining {
			if dependenciesSatisfied(step, satisfied) {
				level = append(level, step)
			} else {
				next = append(next, step)
			}
		}

		if len(level) == 0 {
			return nil, s.diagnoseStall(next, known)
		}

		for _, step := range level {
			satisfied[step.Name] = struct{}{}
		}
		levels = append(levels, level)
		remaining = next
	}

	s.logger.Debug("Recovery steps planned",
		zap.Int("steps", len(steps)),
		zap.Int("levels", len(levels)))
	return levels, nil
}

func dependenciesSatisfied(step entity.RecoveryStep, satisfied map[string]struct{}) bool {
	for _, dep := range step.Dependencies {
		if _, ok := satisfied[dep]; !ok {
			return false
		}
	}
	return true
}

// diagnoseStall distinguishes dangling dependency references from true
// cycles among the steps that could not be grouped.
func (s *DependencyScheduler) diagnoseStall(stalled []entity.RecoveryStep, known map[string]struct{}) error {
	var unknown []string
	for _, step := range stalled {
		for _, dep := range step.Dependencies {
			if _, ok := known[dep]; !ok {
				unknown = append(unknown, fmt.Sprintf("%s -> %s", step.Name, dep))
			}
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return entity.NewRecoveryErrorWithDetails(entity.ErrCodeUnknownDependency,
			"step dependencies reference unknown steps", strings.Join(unknown, ", "))
	}

	names := make([]string, 0, len(stalled))
	for _, step := range stalled {
		names = append(names, step.Name)
	}
	sort.Strings(names)
	return entity.NewRecoveryErrorWithDetails(entity.ErrCodeDependencyCycle,
		"step dependencies form a cycle", strings.Join(names, ", "))
}
