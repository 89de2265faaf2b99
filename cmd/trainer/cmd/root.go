package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vocabtrainer/backend/internal/config"
	"github.com/vocabtrainer/backend/internal/logger"
	"github.com/vocabtrainer/backend/internal/trainer"
	"go.uber.org/zap"
)

var (
	cfg *config.TrainerConfig

	catalogPath  string
	learnerID    string
	learnerToken string
	cacheDriver  string
)

var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Spaced-repetition vocabulary trainer",
	Long: `trainer is a terminal vocabulary trainer.

Cards come from a JSON, CSV or XLSX catalog. Progress is kept in a local cache
and, when REMOTE_BASE_URL and a learner token are configured, synced to the
progress server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == tokenCmd.Name() {
			return nil
		}

		var err error
		if cfg, err = config.LoadTrainer(); err != nil {
			return err
		}
		applyFlags(cmd, cfg)

		if err := logger.InitWithFile(cfg.Logging.Level, logger.FileConfig{Path: cfg.Logging.Path}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "c", "", "path to the card catalog (overrides CATALOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&learnerID, "learner", "", "learner id (overrides LEARNER_ID)")
	rootCmd.PersistentFlags().StringVar(&learnerToken, "token", "", "learner access token (overrides LEARNER_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cacheDriver, "cache", "", "local cache driver: sqlite, redis or memory (overrides CACHE_DRIVER)")

	rootCmd.AddCommand(studyCmd, statsCmd, historyCmd, resetCmd, tokenCmd)
}

func applyFlags(cmd *cobra.Command, cfg *config.TrainerConfig) {
	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.CatalogPath = catalogPath
	}
	if flags.Changed("learner") {
		cfg.Learner.ID = learnerID
	}
	if flags.Changed("token") {
		cfg.Learner.Token = learnerToken
	}
	if flags.Changed("cache") {
		cfg.Cache.Driver = cacheDriver
	}
}

// openApp opens and starts the trainer; the caller must close it with closeApp
func openApp(ctx context.Context) (*trainer.App, error) {
	app, err := trainer.Open(ctx, cfg, logger.Logger)
	if err != nil {
		return nil, err
	}
	res := app.Start(ctx)
	logger.Logger.Info("progress loaded", zap.String("source", string(res.Source)), zap.Int("replayed", res.Replayed))
	return app, nil
}

func closeApp(app *trainer.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Close(ctx); err != nil {
		logger.Logger.Error("failed to close trainer", zap.Error(err))
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}
