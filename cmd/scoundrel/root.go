package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the Scoundrel server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scoundrel",
		Short: "Scoundrel - authoritative game server",
		Long: `Scoundrel runs the single-player Scoundrel dungeon crawler on the
server. Clients send moves; the server validates, applies and persists them.
Configuration is read from the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations for the configured SQL store and exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), cmd)
		},
	}
}
