package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lextutor-backend/fetcher"
	"lextutor-backend/scraper"
)

var jurisprudenceCmd = &cobra.Command{
	Use:   "jurisprudence KEYWORD...",
	Short: "Search entscheidsuche.ch for case law",
	Long: `jurisprudence runs one search session for the keyword and prints the
deduplicated result cards. Screenshots of empty or failed sessions are kept
in the configured artifact storage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := fetcher.NormalizeKeyword(strings.Join(args, " "))
		if keyword == "" {
			return respond(cmd, fetcher.EntriesResponse(nil))
		}

		artifacts, err := newArtifactStore(cmd.Context(), worker.cfg)
		if err != nil {
			worker.logger.Warn("artifact storage unavailable, screenshots disabled", zap.Error(err))
		}

		cfg := scraper.DefaultCaseLawConfig()
		jc := worker.cfg.Jurisprudence
		cfg.WaitTimeout = jc.WaitTimeout
		cfg.Scrolls = jc.Scrolls
		cfg.ScrollDelay = jc.ScrollDelay
		if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
			cfg.MaxResults = n
		} else {
			cfg.MaxResults = jc.MaxResults
		}

		var store scraper.ArtifactStore
		if artifacts != nil {
			store = artifacts
		}
		s := scraper.NewCaseLawScraper(worker.browser, cfg, store, worker.logger.Named("entscheidsuche"))
		entries, err := s.SearchCaseLaw(cmd.Context(), keyword)
		if err != nil {
			return respond(cmd, fetcher.ErrorResponse(err))
		}
		return respond(cmd, fetcher.EntriesResponse(entries))
	},
}

func init() {
	jurisprudenceCmd.Flags().Int("max-results", 0, "maximum number of entries (default from configuration)")

	rootCmd.AddCommand(jurisprudenceCmd)
}
