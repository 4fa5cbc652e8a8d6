package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isectech/disaster-recovery/domain/entity"
)

func levelNames(level []entity.RecoveryStep) []string {
	names := make([]string, len(level))
	for i, s := range level {
		names[i] = s.Name
	}
	return names
}

func TestPlanLevelsDiamond(t *testing.T) {
	scheduler := NewDependencyScheduler(zaptest.NewLogger(t))

	levels, err := scheduler.PlanLevels([]entity.RecoveryStep{
		step("A", "cmd-a"),
		step("B", "cmd-b"),
		step("C", "cmd-c", "A", "B"),
	})
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.ElementsMatch(t, []string{"A", "B"}, levelNames(levels[0]))
	assert.ElementsMatch(t, []string{"C"}, levelNames(levels[1]))
}

func TestPlanLevelsEachStepOnceAndDependenciesEarlier(t *testing.T) {
	scheduler := NewDependencyScheduler(zaptest.NewLogger(t))

	steps := []entity.RecoveryStep{
		step("restore-db", "cmd"),
		step("restore-cache", "cmd", "restore-db"),
		step("start-api", "cmd", "restore-db", "restore-cache"),
		step("start-workers", "cmd", "restore-db"),
		step("smoke-test", "cmd", "start-api", "start-workers"),
		step("dns-cutover", "cmd", "smoke-test"),
	}
	levels, err := scheduler.PlanLevels(steps)
	require.NoError(t, err)

	levelOf := make(map[string]int)
	total := 0
	for i, level := range levels {
		for _, s := range level {
			_, seen := levelOf[s.Name]
			require.False(t, seen, "step %s grouped twice", s.Name)
			levelOf[s.Name] = i
			total++
		}
	}
	assert.Equal(t, len(steps), total)

	for _, s := range steps {
		for _, dep := range s.Dependencies {
			assert.Less(t, levelOf[dep], levelOf[s.Name],
				"dependency %s of %s must be in a strictly earlier level", dep, s.Name)
		}
	}
}

func TestPlanLevelsCycle(t *testing.T) {
	scheduler := NewDependencyScheduler(zaptest.NewLogger(t))

	_, err := scheduler.PlanLevels([]entity.RecoveryStep{
		step("A", "cmd-a", "B"),
		step("B", "cmd-b", "A"),
	})
	require.Error(t, err)
	assert.True(t, entity.HasErrorCode(err, entity.ErrCodeDependencyCycle))
	assert.True(t, entity.IsUnresolvableDependencies(err))
}

func TestPlanLevelsUnknownDependency(t *testing.T) {
	scheduler := NewDependencyScheduler(zaptest.NewLogger(t))

	_, err := scheduler.PlanLevels([]entity.RecoveryStep{
		step("A", "cmd-a"),
		step("B", "cmd-b", "missing"),
	})
	require.Error(t, err)
	assert.True(t, entity.HasErrorCode(err, entity.ErrCodeUnknownDependency))
	assert.True(t, entity.IsUnresolvableDependencies(err))
	assert.Contains(t, err.Error(), "B -> missing")
}

func TestPlanLevelsIgnoresParallelHint(t *testing.T) {
	scheduler := NewDependencyScheduler(zaptest.NewLogger(t))

	a := step("A", "cmd-a")
	a.Parallel = false
	b := step("B", "cmd-b")
	b.Parallel = false

	levels, err := scheduler.PlanLevels([]entity.RecoveryStep{a, b})
	require.NoError(t, err)
	require.Len(t, levels, 1, "independent steps share a level regardless of the parallel hint")
	assert.ElementsMatch(t, []string{"A", "B"}, levelNames(levels[0]))
}

func TestPlanLevelsEmpty(t *testing.T) {
	scheduler := NewDependencyScheduler(zaptest.NewLogger(t))

	levels, err := scheduler.PlanLevels(nil)
	require.NoError(t, err)
	assert.Empty(t, levels)
}
