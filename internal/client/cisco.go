package client

import (
	"context"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

// Cisco executable names. The CLI binary sits next to the UI binary, so
// Open swaps one name for the other.
const (
	ciscoCLIName = "vpncli"
	ciscoUIName  = "vpnui"
)

// Cisco drives the AnyConnect-style command line client. Credentials are
// piped to the client's stdin during connect.
type Cisco struct {
	path   string
	runner Runner
	logger *zap.Logger

	connectArgs []string
	credentials string
}

// Kind implements Adapter.
func (c *Cisco) Kind() domain.ProviderKind { return domain.ProviderCisco }

// SetConfig rebuilds the connect command line and the credential blob that
// will be piped to the client. Pure; nothing runs until Connect.
func (c *Cisco) SetConfig(host, username, secret string) {
	c.connectArgs = []string{"-s", "connect", host}
	c.credentials = username + "\n" + secret + "\ny\n"
}

// Connect performs one silent-mode connect invocation, answering the
// client's prompts from the credential blob.
func (c *Cisco) Connect(ctx context.Context) error {
	if len(c.connectArgs) == 0 {
		return ErrConfigNotSet
	}

	output, err := c.runner.Run(ctx, strings.NewReader(c.credentials), c.path, c.connectArgs...)
	if err != nil {
		c.logger.Warn("cisco connect invocation failed",
			zap.String("output", strings.TrimSpace(output)),
			zap.Error(err))
		return err
	}
	return nil
}

// Disconnect invokes the client's disconnect command.
func (c *Cisco) Disconnect(ctx context.Context) error {
	output, err := c.runner.Run(ctx, nil, c.path, "disconnect")
	if err != nil {
		c.logger.Warn("cisco disconnect failed",
			zap.String("output", strings.TrimSpace(output)),
			zap.Error(err))
		return err
	}
	c.logger.Info("disconnected from VPN")
	return nil
}

// Status queries the client's state command and looks for the connected
// marker in its output.
func (c *Cisco) Status(ctx context.Context) (bool, error) {
	output, err := c.runner.Run(ctx, nil, c.path, "state")
	if err != nil {
		return false, err
	}
	return strings.Contains(output, statusConnected), nil
}

// Open launches the AnyConnect UI next to the CLI binary. Best effort.
func (c *Cisco) Open() error {
	uiPath := strings.ReplaceAll(c.path, ciscoCLIName, ciscoUIName)
	if err := c.runner.Start(uiPath); err != nil {
		c.logger.Warn("failed to open cisco client UI", zap.Error(err))
		return err
	}
	c.logger.Info("cisco client UI opened")
	return nil
}

// Terminate kills the AnyConnect UI process. Best effort.
func (c *Cisco) Terminate() error {
	var err error
	if runtime.GOOS == "windows" {
		_, err = c.runner.Run(context.Background(), nil, "taskkill", "/F", "/IM", ciscoUIName+".exe")
	} else {
		_, err = c.runner.Run(context.Background(), nil, "pkill", "-f", ciscoUIName)
	}
	if err != nil {
		c.logger.Debug("failed to terminate cisco client UI", zap.Error(err))
	}
	return err
}
