package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"studiosync/internal/app/client"
	"studiosync/internal/app/client/config"
	"studiosync/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	serverURL string
	actor     string
)

var rootCmd = &cobra.Command{
	Use:   "studiosync",
	Short: "StudioSync - offline-first studio booking client",
	Long: `StudioSync manages photography-studio bookings against a local
embedded store and keeps it converged with the studio's cloud backend.

All commands complete locally and return immediately; synchronization
runs in the background and survives going offline.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	if app != nil {
		app.Stop()
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg = config.MustLoad()
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log = logger.New(cfg.Env)

	var err error
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "sync server address (host:port)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "front-desk", "acting staff member recorded on mutations")

	rootCmd.AddCommand(bookingCmd)
	rootCmd.AddCommand(addonCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(queueCmd)
}
