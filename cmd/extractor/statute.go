package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lextutor-backend/fetcher"
	"lextutor-backend/parser"
	"lextutor-backend/scraper"
)

var statuteCmd = &cobra.Command{
	Use:   "statute LAW_CODE ARTICLE",
	Short: "Extract one article from fedlex.admin.ch",
	Long: `statute opens the law page given by --url, jumps to the article anchor and
prints the formatted article body. ARTICLE is a single article number such as
266g; ranges are expanded by the caller.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		url, _ := cmd.Flags().GetString("url")

		req := fetcher.ArticleRequest{
			LawCode:       args[0],
			LawTitle:      title,
			SourceURL:     url,
			ArticleNumber: args[1],
		}
		if req.SourceURL == "" {
			return respond(cmd, fetcher.ErrorResponse(fmt.Errorf("%w: --url is required", fetcher.ErrInvalidInput)))
		}
		if !parser.IsSingleArticle(req.ArticleNumber) {
			return respond(cmd, fetcher.ErrorResponse(fmt.Errorf("%w: %q is not a single article", fetcher.ErrInvalidInput, req.ArticleNumber)))
		}

		s := scraper.NewStatuteScraper(worker.browser, worker.cfg.Statute.Timeout, worker.logger.Named("fedlex"))
		content, err := s.FetchArticle(cmd.Context(), req)
		if err != nil {
			return respond(cmd, fetcher.ErrorResponse(err))
		}
		return respond(cmd, fetcher.ArticleResponse(content))
	},
}

func init() {
	statuteCmd.Flags().String("title", "", "display title of the law, used in the article heading")
	statuteCmd.Flags().String("url", "", "fedlex page of the law")

	rootCmd.AddCommand(statuteCmd)
}
