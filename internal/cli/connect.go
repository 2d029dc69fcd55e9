package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vpn-cli/vpnctl/internal/client"
	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/orchestrator"
	"github.com/vpn-cli/vpnctl/internal/probe"
	"github.com/vpn-cli/vpnctl/internal/store"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var (
	connectConfig   string
	connectHost     string
	connectUser     string
	connectPassword string
	connectSave     string
	connectForce    bool
	connectRetry    int
	connectDelay    int
)

var connectCmd = &cobra.Command{
	Use:   "connect <provider>",
	Short: "Connect to a VPN",
	Long: `Connect to a VPN through the external client configured for the
provider. Either reference a saved profile with --config, or supply
--host/--user/--password directly (optionally saving them with --save).

Example:
  vpnctl connect cisco --config office
  vpnctl connect forti --host vpn.example.com --user alice --password s3cret
  vpnctl connect cisco --config office --retry 5 --delay 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("retry") {
			connectRetry = cfg.Connect.Retries
		}
		if !cmd.Flags().Changed("delay") {
			connectDelay = int(cfg.Connect.Delay / time.Second)
		}
		return runConnect(args[0])
	},
}

func init() {
	connectCmd.Flags().StringVarP(&connectConfig, "config", "C", "", "Saved profile name to connect with")
	connectCmd.Flags().StringVarP(&connectHost, "host", "H", "", "VPN host")
	connectCmd.Flags().StringVarP(&connectUser, "user", "U", "", "VPN username")
	connectCmd.Flags().StringVarP(&connectPassword, "password", "P", "", "VPN password")
	connectCmd.Flags().StringVarP(&connectSave, "save", "S", "", "Save the supplied details under this profile name")
	connectCmd.Flags().BoolVarP(&connectForce, "force", "f", false, "Overwrite an existing profile when saving")
	connectCmd.Flags().IntVarP(&connectRetry, "retry", "r", orchestrator.DefaultRetries, "Number of connection attempts")
	connectCmd.Flags().IntVarP(&connectDelay, "delay", "d", int(orchestrator.DefaultDelay/time.Second), "Delay in seconds between attempts")
}

func runConnect(providerArg string) error {
	kind, err := domain.ParseProviderKind(providerArg)
	if err != nil {
		util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
	}

	profile, err := resolveConnectProfile(kind)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			util.ExitWithCode(util.ExitInvalidInput, "Error: profile %q not found", connectConfig)
		}
		return err
	}

	// The profile's provider kind, not the positional argument, selects
	// the adapter variant.
	if profile.Provider != kind {
		logger.Warn("profile provider overrides command argument",
			zap.String("profile", profile.Name),
			zap.String("provider", string(profile.Provider)))
		kind = profile.Provider
	}

	adapter, err := buildAdapter(kind)
	if err != nil {
		util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
	}

	prober := probe.New(cfg.Probe.Address, cfg.Probe.Timeout, logger)
	orch := orchestrator.New(adapter, prober, orchestrator.Config{
		Retries: connectRetry,
		Delay:   time.Duration(connectDelay) * time.Second,
	}, logger)

	// An interrupt aborts the state machine; the store is already sealed
	// by the time the machine runs.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome := orch.Connect(ctx, profile)
	fmt.Println(outcome.Summary())

	recordConnectOutcome(profile.Name, outcome)

	if !outcome.Connected() {
		if outcome.Failure == orchestrator.FailureNetworkNotReady {
			util.ExitWithCode(util.ExitNetworkNotReady, "")
		}
		util.ExitWithCode(util.ExitConnectFailed, "")
	}
	return nil
}

// resolveConnectProfile builds the target profile from the manual flags
// or loads it from the store, saving manual details when requested.
func resolveConnectProfile(kind domain.ProviderKind) (*domain.Profile, error) {
	manual := connectHost != "" || connectUser != "" || connectPassword != ""
	if manual {
		if connectHost == "" || connectUser == "" || connectPassword == "" {
			util.ExitWithCode(util.ExitInvalidInput, "Error: --host, --user, and --password must all be provided together")
		}
		name := connectSave
		if name == "" {
			name = connectConfig
		}
		if name == "" {
			name = "manual"
		}
		profile := &domain.Profile{
			Name:     name,
			Host:     connectHost,
			Username: connectUser,
			Secret:   connectPassword,
			Provider: kind,
		}
		if err := profile.Validate(); err != nil {
			util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
		}

		if connectSave != "" {
			if err := saveProfile(profile, connectForce); err != nil {
				if errors.Is(err, store.ErrProfileExists) {
					util.ExitWithCode(util.ExitInvalidInput, "Error: profile %q already exists, use --force to overwrite", connectSave)
				}
				return nil, err
			}
			fmt.Printf("Saved profile %q\n", connectSave)
		}
		return profile, nil
	}

	if connectConfig == "" {
		util.ExitWithCode(util.ExitInvalidInput, "Error: provide --config NAME or --host/--user/--password")
	}

	var profile *domain.Profile
	err := withStore(func(st store.ProfileStore) error {
		p, err := st.Get(connectConfig)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// saveProfile inserts the profile, or replaces an existing one when
// overwrite is set.
func saveProfile(profile *domain.Profile, overwrite bool) error {
	return withStore(func(st store.ProfileStore) error {
		err := st.Insert(profile)
		if errors.Is(err, store.ErrProfileExists) && overwrite {
			err = st.Update(profile.Name, *profile, true)
		}
		if err != nil {
			return err
		}
		return st.LogOperation(&domain.Operation{
			Type:    "save",
			Profile: profile.Name,
			Success: true,
		})
	})
}

// buildAdapter wires the configured client binary for the provider.
func buildAdapter(kind domain.ProviderKind) (client.Adapter, error) {
	clientPath, err := cfg.ClientPath(kind)
	if err != nil {
		return nil, err
	}
	runner := client.NewExecRunner(cfg.Connect.CommandTimeout, logger)
	return client.New(kind, clientPath, runner, logger)
}

// recordConnectOutcome appends the connect result to the audit log.
// Best effort: a failure to audit never changes the command result.
func recordConnectOutcome(name string, outcome orchestrator.Outcome) {
	err := withStore(func(st store.ProfileStore) error {
		return st.LogOperation(&domain.Operation{
			Type:    "connect",
			Profile: name,
			Detail:  outcome.Summary(),
			Success: outcome.Connected(),
		})
	})
	if err != nil {
		logger.Warn("failed to record connect outcome", zap.Error(err))
	}
}
