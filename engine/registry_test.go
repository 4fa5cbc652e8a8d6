package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isectech/disaster-recovery/domain/entity"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewScenarioRegistry(zaptest.NewLogger(t))
	scenario := scenarioWith("db-outage", entity.RecoveryProcedure{
		Steps: []entity.RecoveryStep{step("restore", "pg-restore")},
	})

	require.NoError(t, registry.Register(scenario))

	got, err := registry.Get("db-outage")
	require.NoError(t, err)
	assert.Equal(t, scenario.ID, got.ID)
	assert.Len(t, registry.List(), 1)
}

func TestRegistryUnknownScenario(t *testing.T) {
	registry := NewScenarioRegistry(zaptest.NewLogger(t))
	_, err := registry.Get("nope")
	require.Error(t, err)
	assert.True(t, entity.HasErrorCode(err, entity.ErrCodeUnknownScenario))
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	registry := NewScenarioRegistry(zaptest.NewLogger(t))
	scenario := scenarioWith("dup", entity.RecoveryProcedure{
		Steps: []entity.RecoveryStep{step("a", "cmd")},
	})
	require.NoError(t, registry.Register(scenario))

	err := registry.Register(scenario)
	require.Error(t, err)
	assert.True(t, entity.HasErrorCode(err, entity.ErrCodeAlreadyRegistered))
}

func TestRegistryRejectsInvalidScenario(t *testing.T) {
	registry := NewScenarioRegistry(zaptest.NewLogger(t))

	tests := []struct {
		name     string
		scenario entity.DisasterScenario
	}{
		{
			name: "duplicate step names",
			scenario: scenarioWith("s1", entity.RecoveryProcedure{
				Steps: []entity.RecoveryStep{step("a", "cmd"), step("a", "cmd2")},
			}),
		},
		{
			name: "dangling dependency",
			scenario: scenarioWith("s2", entity.RecoveryProcedure{
				Steps: []entity.RecoveryStep{step("a", "cmd", "missing")},
			}),
		},
		{
			name: "empty command",
			scenario: scenarioWith("s3", entity.RecoveryProcedure{
				Steps: []entity.RecoveryStep{{Name: "a", Timeout: "PT5M"}},
			}),
		},
		{
			name:     "no steps",
			scenario: scenarioWith("s4", entity.RecoveryProcedure{}),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := registry.Register(tc.scenario)
			require.Error(t, err)
			assert.True(t, entity.HasErrorCode(err, entity.ErrCodeInvalidScenario))
		})
	}
}
