// Package orchestrator sequences one connect request: readiness probing,
// client invocation, independent status verification, and retry with
// delay. Failures never escape as errors; every run ends in a structured
// Outcome the caller renders.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vpn-cli/vpnctl/internal/client"
	"github.com/vpn-cli/vpnctl/internal/domain"
)

// State is a position in the connection state machine.
type State int

const (
	StateIdle State = iota
	StateProbingNetwork
	StateInvoking
	StateVerifying
	StateRetrying
	StateConnected
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProbingNetwork:
		return "ProbingNetwork"
	case StateInvoking:
		return "Invoking"
	case StateVerifying:
		return "Verifying"
	case StateRetrying:
		return "Retrying"
	case StateConnected:
		return "Connected"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// FailureKind distinguishes why a run ended in StateFailed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureNetworkNotReady: the readiness probe failed across every
	// attempt; the client was never invoked on the failing attempts.
	FailureNetworkNotReady
	// FailureConnectVerification: the client invocation completed but the
	// independent status check never confirmed a connection.
	FailureConnectVerification
	// FailureExternalClient: the client process itself errored on the
	// final attempt.
	FailureExternalClient
)

// String returns a human-readable failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNetworkNotReady:
		return "network not ready"
	case FailureConnectVerification:
		return "connect verification failed"
	case FailureExternalClient:
		return "external client error"
	default:
		return "unknown"
	}
}

// Outcome is the structured result of one connect run.
type Outcome struct {
	State            State
	Failure          FailureKind
	Attempts         int
	AlreadyConnected bool
}

// Connected reports whether the run ended with an active connection.
func (o Outcome) Connected() bool { return o.State == StateConnected }

// Summary renders the operator-facing result line, always making the
// retried-vs-exhausted distinction visible.
func (o Outcome) Summary() string {
	switch {
	case o.AlreadyConnected:
		return "already connected"
	case o.State == StateConnected && o.Attempts == 1:
		return "connected on first attempt"
	case o.State == StateConnected:
		return fmt.Sprintf("connected, succeeded after %d attempts", o.Attempts)
	default:
		return fmt.Sprintf("connection failed (%s), exhausted %d attempts", o.Failure, o.Attempts)
	}
}

// Default retry policy.
const (
	DefaultRetries = 3
	DefaultDelay   = 5 * time.Second
)

// Config is the caller-supplied retry policy for one run.
type Config struct {
	// Retries is the total attempt budget.
	Retries int
	// Delay is the wait between attempts. Negative values are clamped to
	// zero.
	Delay time.Duration
}

func (c Config) normalized() Config {
	if c.Retries < 1 {
		c.Retries = DefaultRetries
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	return c
}

// Prober gates connection attempts on network readiness.
type Prober interface {
	IsReady(ctx context.Context) bool
}

// Orchestrator owns the connection attempt for exactly one invocation;
// it is not reused across commands.
type Orchestrator struct {
	adapter client.Adapter
	prober  Prober
	cfg     Config
	logger  *zap.Logger

	// sleep is injected so retry sequences are testable without real
	// delays.
	sleep        func(time.Duration)
	onTransition func(State)
}

// New creates an orchestrator for one connect run.
func New(adapter client.Adapter, prober Prober, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		adapter: adapter,
		prober:  prober,
		cfg:     cfg.normalized(),
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// OnTransition registers a hook invoked on every state change.
func (o *Orchestrator) OnTransition(fn func(State)) {
	o.onTransition = fn
}

func (o *Orchestrator) transition(s State) {
	o.logger.Debug("state transition", zap.Stringer("state", s))
	if o.onTransition != nil {
		o.onTransition(s)
	}
}

// Connect drives the state machine for the given profile and returns the
// terminal outcome. Adapter errors are captured and logged, never raised.
func (o *Orchestrator) Connect(ctx context.Context, profile *domain.Profile) Outcome {
	o.transition(StateIdle)

	// Short-circuit: nothing to do when the client already reports an
	// active connection.
	if connected, err := o.adapter.Status(ctx); err != nil {
		o.logger.Warn("initial status check failed", zap.Error(err))
	} else if connected {
		o.logger.Info("VPN is already connected")
		o.transition(StateConnected)
		return Outcome{State: StateConnected, AlreadyConnected: true}
	}

	failure := FailureNetworkNotReady
	for attempt := 1; attempt <= o.cfg.Retries; attempt++ {
		o.transition(StateProbingNetwork)
		if !o.prober.IsReady(ctx) {
			failure = FailureNetworkNotReady
			o.logger.Warn("network is not ready",
				zap.Int("attempt", attempt),
				zap.Int("retries", o.cfg.Retries))
			if attempt < o.cfg.Retries {
				o.sleep(o.cfg.Delay)
			}
			continue
		}

		o.transition(StateInvoking)
		o.adapter.SetConfig(profile.Host, profile.Username, profile.Secret)
		if err := o.adapter.Connect(ctx); err != nil {
			// Captured, not raised: verification decides the attempt.
			failure = FailureExternalClient
			o.logger.Warn("connect invocation failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else {
			failure = FailureConnectVerification
		}

		o.transition(StateVerifying)
		connected, err := o.adapter.Status(ctx)
		if err != nil {
			o.logger.Warn("status verification failed", zap.Error(err))
		}
		if connected {
			o.logger.Info("VPN connected",
				zap.String("profile", profile.Name),
				zap.Int("attempts", attempt))
			o.transition(StateConnected)
			return Outcome{State: StateConnected, Attempts: attempt}
		}

		if attempt < o.cfg.Retries {
			o.logger.Info("retrying connection",
				zap.Int("attempt", attempt),
				zap.Duration("delay", o.cfg.Delay))
			o.transition(StateRetrying)
			o.sleep(o.cfg.Delay)
		}
	}

	o.logger.Error("connection attempts exhausted",
		zap.Int("retries", o.cfg.Retries),
		zap.Stringer("failure", failure))
	o.transition(StateFailed)
	return Outcome{State: StateFailed, Failure: failure, Attempts: o.cfg.Retries}
}
