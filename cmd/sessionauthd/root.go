package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	sessionauth "github.com/deniswachira/sessionauth"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the sessionauthd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessionauthd",
		Short: "Session-based authentication service",
		Long: `sessionauthd serves user registration, cookie sessions and the
password-reset handshake over HTTP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig merges the config file with the flags set on cmd.
func loadConfig(flags *pflag.FlagSet) (sessionauth.Config, error) {
	return sessionauth.LoadConfig(configFile, flags)
}
