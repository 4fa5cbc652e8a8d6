package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseProcedure() RecoveryProcedure {
	return RecoveryProcedure{
		Description: "restore primary region",
		Steps: []RecoveryStep{
			{Name: "a", Command: "cmd-a", Timeout: "PT5M"},
			{Name: "b", Command: "cmd-b", Timeout: "PT5M", Dependencies: []string{"a"}},
		},
		RollbackSteps: []RecoveryStep{
			{Name: "undo-a", Command: "cmd-undo-a", Timeout: "PT5M"},
		},
		Validations: []ProcedureValidation{
			{Name: "health", Kind: "http", Command: "check"},
		},
	}
}

func TestOverrideMergeNilKeepsBase(t *testing.T) {
	var override *ProcedureOverride
	merged := override.Merge(baseProcedure())
	assert.Equal(t, baseProcedure(), merged)
}

func TestOverrideMergeReplacesWholeFields(t *testing.T) {
	override := &ProcedureOverride{
		Steps: []RecoveryStep{
			{Name: "x", Command: "cmd-x", Timeout: "PT1M"},
		},
	}
	merged := override.Merge(baseProcedure())

	// Supplying steps replaces the entire step list; individual steps are
	// never merged.
	require.Len(t, merged.Steps, 1)
	assert.Equal(t, "x", merged.Steps[0].Name)

	// Untouched fields keep the registered values.
	assert.Equal(t, baseProcedure().Description, merged.Description)
	assert.Equal(t, baseProcedure().RollbackSteps, merged.RollbackSteps)
	assert.Equal(t, baseProcedure().Validations, merged.Validations)
}

func TestOverrideMergeAllFields(t *testing.T) {
	desc := "override description"
	override := &ProcedureOverride{
		Description:   &desc,
		Steps:         []RecoveryStep{{Name: "x", Command: "cmd-x"}},
		RollbackSteps: []RecoveryStep{{Name: "undo-x", Command: "cmd-undo-x"}},
		Validations:   []ProcedureValidation{{Name: "v", Kind: "sql", Command: "check-v"}},
	}
	merged := override.Merge(baseProcedure())

	assert.Equal(t, desc, merged.Description)
	assert.Equal(t, override.Steps, merged.Steps)
	assert.Equal(t, override.RollbackSteps, merged.RollbackSteps)
	assert.Equal(t, override.Validations, merged.Validations)
}

func TestScenarioValidate(t *testing.T) {
	valid := DisasterScenario{
		ID:        "scn",
		Name:      "scenario",
		Severity:  ScenarioSeverityHigh,
		Procedure: baseProcedure(),
	}
	assert.NoError(t, valid.Validate())

	missingID := valid
	missingID.ID = ""
	assert.Error(t, missingID.Validate())

	missingName := valid
	missingName.Name = ""
	assert.Error(t, missingName.Validate())

	badRollback := valid
	badRollback.Procedure.RollbackSteps = []RecoveryStep{{Name: "undo"}}
	assert.Error(t, badRollback.Validate())
}

func TestScenarioValidateAllowsCycles(t *testing.T) {
	// Cycles are a scheduling concern, diagnosed at trigger time.
	scenario := DisasterScenario{
		ID:       "cyclic",
		Name:     "cyclic",
		Severity: ScenarioSeverityLow,
		Procedure: RecoveryProcedure{
			Steps: []RecoveryStep{
				{Name: "a", Command: "cmd-a", Dependencies: []string{"b"}},
				{Name: "b", Command: "cmd-b", Dependencies: []string{"a"}},
			},
		},
	}
	assert.NoError(t, scenario.Validate())
}
