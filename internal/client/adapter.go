// Package client wraps external VPN client executables behind a uniform
// lifecycle contract. Each provider kind gets its own adapter variant; the
// orchestrator drives whichever variant matches the profile.
package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

// Error variables for external client operations
var (
	// ErrExternalClient is returned when the external client exits non-zero
	// or times out.
	ErrExternalClient = errors.New("external client error")
	// ErrConfigNotSet is returned when Connect runs before SetConfig.
	ErrConfigNotSet = errors.New("connection parameters not set")
)

// statusConnected is the output substring that marks an active connection.
// Both supported clients print it; "Disconnected" does not match because
// the comparison is case sensitive.
const statusConnected = "Connected"

// Adapter is the capability contract every client variant implements.
type Adapter interface {
	// Kind identifies the provider this adapter drives.
	Kind() domain.ProviderKind

	// Open launches the client's own UI process. Best effort.
	Open() error
	// Terminate kills the client's UI process. Best effort.
	Terminate() error

	// SetConfig rebuilds the invocation parameters for the next Connect.
	// Pure; no I/O happens until Connect.
	SetConfig(host, username, secret string)

	// Connect performs exactly one connect invocation of the external
	// client. A nil return means the process completed, not that the
	// tunnel is up; callers must confirm with Status.
	Connect(ctx context.Context) error

	// Disconnect invokes the client's disconnect command. Not retried.
	Disconnect(ctx context.Context) error

	// Status reports whether the client's output indicates an active
	// connection. Process failures yield (false, diagnostic).
	Status(ctx context.Context) (bool, error)
}

// New returns the adapter variant for the given provider kind, wrapping
// the executable at path.
func New(kind domain.ProviderKind, path string, runner Runner, logger *zap.Logger) (Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = NewExecRunner(DefaultCommandTimeout, logger)
	}
	switch kind {
	case domain.ProviderCisco:
		return &Cisco{path: path, runner: runner, logger: logger}, nil
	case domain.ProviderForti:
		return &Forti{path: path, runner: runner, logger: logger}, nil
	default:
		return nil, fmt.Errorf("no client adapter for provider %q", kind)
	}
}
