package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

// fortiUIName is the FortiClient UI executable launched by Open.
const fortiUIName = "FortiClient"

// Forti drives the FortiClient command line tool. Unlike the Cisco
// variant, credentials are handed over through a transient credential file
// used as the client's stdin.
type Forti struct {
	path   string
	runner Runner
	logger *zap.Logger

	host        string
	credentials string
}

// Kind implements Adapter.
func (f *Forti) Kind() domain.ProviderKind { return domain.ProviderForti }

// SetConfig rebuilds the credential blob for the next Connect. Pure; the
// credential file is only materialized inside Connect.
func (f *Forti) SetConfig(host, username, secret string) {
	f.host = host
	f.credentials = username + "\n" + secret + "\n"
}

// Connect performs one connect invocation, feeding the client from a
// short-lived credential file. The client's own UI is terminated first so
// it cannot hold the tunnel state.
func (f *Forti) Connect(ctx context.Context) error {
	if f.credentials == "" {
		return ErrConfigNotSet
	}

	_ = f.Terminate()

	credPath, err := f.writeCredentialFile()
	if err != nil {
		return err
	}
	defer os.Remove(credPath)

	credFile, err := os.Open(credPath)
	if err != nil {
		return fmt.Errorf("%w: failed to open credential file: %v", ErrExternalClient, err)
	}
	defer credFile.Close()

	output, err := f.runner.Run(ctx, credFile, f.path, "-s")
	if err != nil {
		f.logger.Warn("forti connect invocation failed",
			zap.String("output", strings.TrimSpace(output)),
			zap.Error(err))
		return err
	}
	return nil
}

func (f *Forti) writeCredentialFile() (string, error) {
	credFile, err := os.CreateTemp("", "vpnctl-forti-*.cred")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create credential file: %v", ErrExternalClient, err)
	}
	path := credFile.Name()

	if err := os.Chmod(path, 0o600); err != nil {
		credFile.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: failed to restrict credential file: %v", ErrExternalClient, err)
	}
	if _, err := credFile.WriteString(f.credentials); err != nil {
		credFile.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: failed to write credential file: %v", ErrExternalClient, err)
	}
	if err := credFile.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: failed to close credential file: %v", ErrExternalClient, err)
	}
	return path, nil
}

// Disconnect invokes the client's disconnect command.
func (f *Forti) Disconnect(ctx context.Context) error {
	output, err := f.runner.Run(ctx, nil, f.path, "disconnect")
	if err != nil {
		f.logger.Warn("forti disconnect failed",
			zap.String("output", strings.TrimSpace(output)),
			zap.Error(err))
		return err
	}
	f.logger.Info("disconnected from VPN")
	return nil
}

// Status queries the client's state command and looks for the connected
// marker in its output.
func (f *Forti) Status(ctx context.Context) (bool, error) {
	output, err := f.runner.Run(ctx, nil, f.path, "state")
	if err != nil {
		return false, err
	}
	return strings.Contains(output, statusConnected), nil
}

// Open launches the FortiClient UI from the client's directory. Best effort.
func (f *Forti) Open() error {
	uiPath := filepath.Join(filepath.Dir(f.path), fortiUIName)
	if err := f.runner.Start(uiPath); err != nil {
		f.logger.Warn("failed to open forti client UI", zap.Error(err))
		return err
	}
	f.logger.Info("forti client UI opened")
	return nil
}

// Terminate kills the FortiClient UI process. Best effort.
func (f *Forti) Terminate() error {
	var err error
	if runtime.GOOS == "windows" {
		_, err = f.runner.Run(context.Background(), nil, "taskkill", "/F", "/IM", fortiUIName+".exe")
	} else {
		_, err = f.runner.Run(context.Background(), nil, "pkill", "-f", fortiUIName)
	}
	if err != nil {
		f.logger.Debug("failed to terminate forti client UI", zap.Error(err))
	}
	return err
}
