package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var articleCmd = &cobra.Command{
	Use:   "article LAW_CODE ARTICLE",
	Short: "Print an article of federal law",
	Long: `article prints one article, or an inclusive range of plain article numbers,
straight from fedlex without running an analysis.

  lextutor article CO 266g
  lextutor article CC 8-10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := currentRenderer()
		if err != nil {
			return err
		}

		articles, err := newClient(viper.GetString("server")).fetchArticle(cmd.Context(), args[0], args[1])
		var apiErr *apiError
		if err != nil && !(errors.As(err, &apiErr) && len(articles) > 0) {
			return err
		}

		var b strings.Builder
		for _, a := range articles {
			b.WriteString(articleSection(a))
		}
		rendered, rerr := r.Render(b.String())
		if rerr != nil {
			return rerr
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(articleCmd)
}
