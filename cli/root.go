// Package cli holds the tcgp-draft command tree.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tcgp-draft-server/config"
	"tcgp-draft-server/loghandler"
)

// app carries state shared by every subcommand once the root has run.
type app struct {
	configPath string
	cfg        *config.Config
}

// NewRootCmd builds the command tree. Running it without a subcommand serves.
func NewRootCmd() *cobra.Command {
	a := &app{}
	serve := newServeCmd(a)

	root := &cobra.Command{
		Use:   "tcgp-draft",
		Short: "Multiplayer booster draft server",
		Long: `tcgp-draft hosts draft rooms: players join over HTTP, connect over
WebSocket and pick cards from packs that rotate around the table.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				slog.Debug("no .env file found; using environment variables", "tag", "cli")
			}
			a.cfg = config.LoadFrom(a.configPath)
			slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, a.cfg.SlogLevel())))
			return nil
		},
		RunE: serve.RunE,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.json", "optional JSON config file")

	root.AddCommand(serve, newPoolCmd(a))
	return root
}

// Execute runs the root command until it returns or ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
