package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"queueWatch/internal/config"
	"queueWatch/internal/modules/queue/infrastructure"
	"queueWatch/internal/shared/logging"
)

// app carries what every subcommand needs once the root has loaded configuration.
type app struct {
	cfg     *config.Config
	dataDir string
}

func (a *app) dailyLog() *infrastructure.DailyLog {
	dir := a.dataDir
	if dir == "" {
		dir = a.cfg.Storage.LogDirectory
	}
	return infrastructure.NewDailyLog(dir, a.cfg.Location)
}

func (a *app) storeOptions(driver string) infrastructure.StoreOptions {
	if driver == "" {
		driver = a.cfg.Storage.Driver
	}
	return infrastructure.StoreOptions{
		Driver:      driver,
		BadgerDir:   a.cfg.Storage.BadgerDir,
		PostgresDSN: a.cfg.Storage.DatabaseURL,
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:           "queuectl",
		Short:         "Operate the queue snapshot log and store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(cmd.ErrOrStderr(), ".env load warning: %v\n", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			if logLevel == "" {
				logLevel = cfg.Logging.Level
			}
			if _, _, err := logging.Setup(logging.Config{Level: logLevel, Format: cfg.Logging.Format}); err != nil {
				return fmt.Errorf("logging setup: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Local snapshot log directory (default DATA_DIR)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (default LOG_LEVEL)")

	root.AddCommand(newMigrateCommand(a))
	root.AddCommand(newViewCommand(a))
	root.AddCommand(newDBCheckCommand(a))
	return root
}
