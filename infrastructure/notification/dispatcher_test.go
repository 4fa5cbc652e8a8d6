package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isectech/disaster-recovery/domain/entity"
)

type countingSink struct {
	mu      sync.Mutex
	started int
	failed  int
}

func (c *countingSink) OnStarted(*entity.RecoveryExecution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
}
func (c *countingSink) OnSucceeded(*entity.RecoveryExecution)         {}
func (c *countingSink) OnPartial(*entity.RecoveryExecution, []string) {}
func (c *countingSink) OnFailed(*entity.RecoveryExecution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed++
}

func (c *countingSink) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started, c.failed
}

type panickingSink struct{}

func (panickingSink) OnStarted(*entity.RecoveryExecution)           { panic("sink exploded") }
func (panickingSink) OnSucceeded(*entity.RecoveryExecution)         { panic("sink exploded") }
func (panickingSink) OnPartial(*entity.RecoveryExecution, []string) { panic("sink exploded") }
func (panickingSink) OnFailed(*entity.RecoveryExecution, error)     { panic("sink exploded") }

func testExecution() *entity.RecoveryExecution {
	scenario := entity.DisasterScenario{ID: "scn", Name: "scenario"}
	return entity.NewRecoveryExecution("exec-1", scenario, entity.TriggerSourceManual)
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	d := NewDispatcher(DefaultDispatcherConfig(), zaptest.NewLogger(t), a, b)

	d.OnStarted(testExecution())

	require.Eventually(t, func() bool {
		sa, _ := a.counts()
		sb, _ := b.counts()
		return sa == 1 && sb == 1
	}, time.Second, time.Millisecond)
}

func TestDispatcherIsolatesPanickingSink(t *testing.T) {
	healthy := &countingSink{}
	d := NewDispatcher(DefaultDispatcherConfig(), zaptest.NewLogger(t), panickingSink{}, healthy)

	execution := testExecution()
	// Must not panic the caller, and the healthy sink must still be served.
	d.OnStarted(execution)
	d.OnFailed(execution, assert.AnError)

	require.Eventually(t, func() bool {
		started, failed := healthy.counts()
		return started == 1 && failed == 1
	}, time.Second, time.Millisecond)
}

func TestDispatcherRateLimitsPerSink(t *testing.T) {
	sink := &countingSink{}
	cfg := DefaultDispatcherConfig()
	cfg.RatePerSecond = 0.001
	cfg.Burst = 1
	d := NewDispatcher(cfg, zaptest.NewLogger(t), sink)

	execution := testExecution()
	d.OnStarted(execution)
	d.OnStarted(execution) // dropped: burst exhausted

	require.Eventually(t, func() bool {
		started, _ := sink.counts()
		return started == 1
	}, time.Second, time.Millisecond)

	// Give the dropped delivery a chance to (incorrectly) arrive.
	time.Sleep(20 * time.Millisecond)
	started, _ := sink.counts()
	assert.Equal(t, 1, started)
}

func TestDispatcherWithoutSinks(t *testing.T) {
	d := NewDispatcher(DefaultDispatcherConfig(), zaptest.NewLogger(t))
	assert.NotPanics(t, func() {
		d.OnStarted(testExecution())
		d.OnSucceeded(testExecution())
	})
}
