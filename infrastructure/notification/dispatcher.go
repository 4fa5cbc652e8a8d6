package notification

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/isectech/disaster-recovery/domain/entity"
	"github.com/isectech/disaster-recovery/domain/service"
)

// DispatcherConfig controls per-sink delivery protection
type DispatcherConfig struct {
	// Rate limiting per sink
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`

	// Circuit breaker per sink
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// DefaultDispatcherConfig returns sane delivery protection defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		RatePerSecond:    10,
		Burst:            20,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

type guardedSink struct {
	name    string
	sink    service.NotificationSink
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// Dispatcher fans execution notifications out to the configured sinks.
// Delivery is strictly fire-and-forget: every sink call runs on its own
// goroutine behind a circuit breaker and rate limiter, and a panicking or
// persistently failing sink never affects the orchestration outcome.
type Dispatcher struct {
	sinks  []*guardedSink
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher over the given sinks
func NewDispatcher(config DispatcherConfig, logger *zap.Logger, sinks ...service.NotificationSink) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{logger: logger}
	for i, sink := range sinks {
		name := fmt.Sprintf("notification-sink-%d", i)
		threshold := config.FailureThreshold
		d.sinks = append(d.sinks, &guardedSink{
			name: name,
			sink: sink,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    name,
				Timeout: config.OpenTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= threshold
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					logger.Warn("Notification sink breaker state changed",
						zap.String("sink", name),
						zap.String("from", from.String()),
						zap.String("to", to.String()))
				},
			}),
			limiter: rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst),
		})
	}
	return d
}

// OnStarted notifies all sinks that an execution started
func (d *Dispatcher) OnStarted(execution *entity.RecoveryExecution) {
	d.dispatch("started", execution.ID, func(sink service.NotificationSink) {
		sink.OnStarted(execution)
	})
}

// OnSucceeded notifies all sinks that an execution completed cleanly
func (d *Dispatcher) OnSucceeded(execution *entity.RecoveryExecution) {
	d.dispatch("succeeded", execution.ID, func(sink service.NotificationSink) {
		sink.OnSucceeded(execution)
	})
}

// OnPartial notifies all sinks that an execution completed with issues
func (d *Dispatcher) OnPartial(execution *entity.RecoveryExecution, issues []string) {
	d.dispatch("partial", execution.ID, func(sink service.NotificationSink) {
		sink.OnPartial(execution, issues)
	})
}

// OnFailed notifies all sinks that an execution failed
func (d *Dispatcher) OnFailed(execution *entity.RecoveryExecution, err error) {
	d.dispatch("failed", execution.ID, func(sink service.NotificationSink) {
		sink.OnFailed(execution, err)
	})
}

func (d *Dispatcher) dispatch(event, executionID string, deliver func(service.NotificationSink)) {
	for _, gs := range d.sinks {
		gs := gs
		if !gs.limiter.Allow() {
			d.logger.Warn("Notification dropped by rate limiter",
				zap.String("sink", gs.name),
				zap.String("event", event),
				zap.String("execution_id", executionID))
			continue
		}

		go func() {
			_, err := gs.breaker.Execute(func() (interface{}, error) {
				return nil, safeDeliver(gs.sink, deliver)
			})
			if err != nil {
				d.logger.Warn("Notification delivery failed",
					zap.String("sink", gs.name),
					zap.String("event", event),
					zap.String("execution_id", executionID),
					zap.Error(err))
			}
		}()
	}
}

// safeDeliver converts sink panics into errors the breaker can count.
func safeDeliver(sink service.NotificationSink, deliver func(service.NotificationSink)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification sink panicked: %v", r)
		}
	}()
	deliver(sink)
	return nil
}
