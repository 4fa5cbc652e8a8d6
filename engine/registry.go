package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// ScenarioRegistry holds the registered disaster scenarios. Scenarios are
// immutable once registered and looked up by id.
type ScenarioRegistry struct {
	scenarios map[string]entity.DisasterScenario
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewScenarioRegistry creates an empty registry
func NewScenarioRegistry(logger *zap.Logger) *ScenarioRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioRegistry{
		scenarios: make(map[string]entity.DisasterScenario),
		logger:    logger,
	}
}

// Register validates and stores a scenario definition
func (r *ScenarioRegistry) Register(scenario entity.DisasterScenario) error {
	if err := scenario.Validate(); err != nil {
		return entity.ErrInvalidScenario(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scenarios[scenario.ID]; exists {
		return entity.ErrAlreadyRegistered(scenario.ID)
	}
	r.scenarios[scenario.ID] = scenario

	r.logger.Info("Disaster scenario registered",
		zap.String("scenario_id", scenario.ID),
		zap.String("name", scenario.Name),
		zap.String("severity", string(scenario.Severity)),
		zap.Int("steps", len(scenario.Procedure.Steps)),
		zap.Int("rollback_steps", len(scenario.Procedure.RollbackSteps)))
	return nil
}

// Get returns the scenario for the id
func (r *ScenarioRegistry) Get(id string) (entity.DisasterScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scenario, ok := r.scenarios[id]
	if !ok {
		return entity.DisasterScenario{}, entity.ErrUnknownScenario(id)
	}
	return scenario, nil
}

// List returns all registered scenarios
func (r *ScenarioRegistry) List() []entity.DisasterScenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.DisasterScenario, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		out = append(out, s)
	}
	return out
}
