// Package probe implements the network readiness check that gates
// connection attempts: a single bounded reachability round trip against a
// well-known address.
package probe

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultAddress is a well-known reachable resolver endpoint.
	DefaultAddress = "8.8.8.8:53"
	// DefaultTimeout bounds the probe round trip.
	DefaultTimeout = 3 * time.Second
)

// Probe checks basic network reachability with one TCP dial.
type Probe struct {
	address string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a probe for the given target. Empty address or zero timeout
// fall back to the defaults.
func New(address string, timeout time.Duration, logger *zap.Logger) *Probe {
	if address == "" {
		address = DefaultAddress
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Probe{address: address, timeout: timeout, logger: logger}
}

// IsReady reports whether the probe target is reachable. Any transport
// failure, including a timeout, means not ready; IsReady never returns an
// error to its caller.
func (p *Probe) IsReady(ctx context.Context) bool {
	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", p.address)
	if err != nil {
		p.logger.Debug("readiness probe failed", zap.String("address", p.address), zap.Error(err))
		return false
	}
	conn.Close()
	return true
}
