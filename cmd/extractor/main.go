// Package main is the extraction worker. Each invocation performs one
// browser lookup and prints a single JSON response on stdout; logs go to
// stderr.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lextutor-backend/config"
	"lextutor-backend/fetcher"
	"lextutor-backend/logging"
	"lextutor-backend/scraper"
	"lextutor-backend/storage"
)

// env is built once per invocation by the root command.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	browser *scraper.Browser
}

var worker env

var rootCmd = &cobra.Command{
	Use:   "lextutor-extractor",
	Short: "Run one statute or case-law lookup in a headless browser",
	Long: `lextutor-extractor performs a single lookup against fedlex.admin.ch or
entscheidsuche.ch and writes the outcome as JSON on stdout. The server starts
one worker per lookup so a crashed or wedged browser never affects it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.ValidateExtraction(); err != nil {
			return err
		}

		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}

		worker = env{
			cfg:    cfg,
			logger: logger,
			browser: scraper.NewBrowser(scraper.BrowserConfig{
				Bin:      cfg.Browser.Bin,
				Headless: cfg.Browser.Headless,
			}, logger.Named("browser")),
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if worker.browser != nil {
			if err := worker.browser.Close(); err != nil {
				worker.logger.Warn("failed to close browser", zap.Error(err))
			}
		}
		if worker.logger != nil {
			_ = worker.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lextutor.yaml or ~/.config/lextutor/lextutor.yaml)")
}

// respond writes the worker response. Lookup failures are part of the
// response, so the process still exits zero.
func respond(cmd *cobra.Command, resp fetcher.WorkerResponse) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func newArtifactStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	return storage.New(ctx, storage.Config{
		Type:         storage.Type(cfg.Storage.Type),
		LocalPath:    cfg.Storage.LocalPath,
		S3Bucket:     cfg.Storage.S3Bucket,
		S3Region:     cfg.Storage.S3Region,
		S3Prefix:     cfg.Storage.S3Prefix,
		AWSAccessKey: cfg.Storage.AWSAccessKey,
		AWSSecretKey: cfg.Storage.AWSSecretKey,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
