// Package cli implements the vpnctl command tree. It stays thin: commands
// resolve profiles and render outcomes, the real work lives in the vault,
// store, client, and orchestrator packages.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vpn-cli/vpnctl/internal/config"
	"github.com/vpn-cli/vpnctl/internal/store"
	"github.com/vpn-cli/vpnctl/internal/util"
	"github.com/vpn-cli/vpnctl/internal/vault"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vpnctl",
	Short: "Manage VPN profiles and drive external VPN clients",
	Long: `vpnctl keeps named VPN connection profiles in an encrypted local store
and supervises an external VPN client (Cisco AnyConnect or FortiClient
style) through connect, disconnect, and status.

Profiles are sealed at rest with a locally generated key; the store is
only decrypted for the duration of each operation.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = buildLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file (default is $HOME/.config/vpnctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(setPathCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(supportedCmd)
}

func initConfig() {
	if cfgFile != "" {
		return
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		util.ExitWithCode(util.ExitError, "Failed to locate config directory: %v", err)
	}
	cfgFile = path
}

// buildLogger returns a stderr logger; verbose switches to a development
// config at debug level so state transitions become visible.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return zcfg.Build()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// openVault loads or creates the master key. Key I/O failures abort
// before the store is touched.
func openVault() (*vault.Vault, error) {
	key, err := vault.EnsureKey(cfg.KeyPath)
	if err != nil {
		return nil, err
	}
	return vault.New(key, logger)
}

// withStore runs fn against the profile store inside the vault's scoped
// acquisition: unsealed on entry, resealed on every exit path.
func withStore(fn func(store.ProfileStore) error) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	return v.WithStore(cfg.StorePath, func() error {
		bs, err := store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := bs.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", closeErr)
			}
		}()
		return fn(bs)
	})
}
