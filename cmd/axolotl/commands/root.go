package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"axolotl/internal/app"
	"axolotl/internal/domain"
)

var (
	home       string
	configPath string
	passphrase string
	relayURL   string
	logLevel   string
	username   string

	wire *app.Wire
)

var (
	errNoPassphrase = errors.New("passphrase required (-p or AXOLOTL_PASSPHRASE)")
	errNoRelay      = errors.New("no relay configured; use --relay or relay_url in config.toml")
	errNoUsername   = errors.New("username unknown; use --username or run register first")
)

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if wire != nil {
		err = errors.Join(err, wire.Close())
	}
	return err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "axolotl",
		Short:        "End-to-end encrypted messaging over a relay",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(home, configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("relay") {
				cfg.RelayURL = relayURL
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("username") {
				cfg.Username = username
			}
			if passphrase == "" {
				passphrase = os.Getenv(app.EnvPrefix + "PASSPHRASE")
			}

			logger := app.NewLogger(cmd.ErrOrStderr(), "axolotl", cfg.LogLevel, cfg.LogPretty)
			wire, err = app.NewWire(cfg, logger)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "data dir (default ~/.axolotl)")
	pf.StringVar(&configPath, "config", "", "config file (default <home>/config.toml)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity")
	pf.StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&username, "username", "", "your relay username (default: the registered one)")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		registerCmd(),
		startSessionCmd(),
		sendCmd(),
		recvCmd(),
		sessionsCmd(),
	)
	return root
}

func requirePassphrase() error {
	if passphrase == "" {
		return errNoPassphrase
	}
	return nil
}

func requireRelay() error {
	if wire.Relay == nil {
		return errNoRelay
	}
	return nil
}

// me resolves the local username: flag or config first, then the stored
// account profile.
func me() (domain.Username, error) {
	if wire.Config.Username != "" {
		return domain.Username(wire.Config.Username), nil
	}
	p, ok, err := wire.Accounts.LoadAccountProfile()
	if err != nil {
		return "", err
	}
	if !ok || p.Username == "" {
		return "", errNoUsername
	}
	return p.Username, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
