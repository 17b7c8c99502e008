package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lextutor-backend/models"
)

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Ask a legal question",
	Long: `ask sends QUESTION to the server. Keywords given with -k drive the case-law
search. With --stream the answer is printed piece by piece as the server
retrieves articles and decisions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		keywords, _ := cmd.Flags().GetStringSlice("keyword")
		stream, _ := cmd.Flags().GetBool("stream")

		r, err := currentRenderer()
		if err != nil {
			return err
		}
		c := newClient(viper.GetString("server"))
		out := cmd.OutOrStdout()

		if !stream {
			result, err := c.process(cmd.Context(), question, keywords)
			if err != nil {
				return err
			}
			rendered, err := r.Render(answerMarkdown(result))
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		}

		articlesHeader, casesHeader := false, false
		return c.stream(cmd.Context(), question, keywords, func(f streamFrame) error {
			var md string
			switch f.Type {
			case models.MessageAssistantResponse:
				if err := json.Unmarshal(f.Data, &md); err != nil {
					return err
				}
			case models.MessageArticle:
				var a models.ArticleContent
				if err := json.Unmarshal(f.Data, &a); err != nil {
					return err
				}
				if !articlesHeader {
					md = "## Articles de loi\n\n"
					articlesHeader = true
				}
				md += articleSection(a)
			case models.MessageJurisprudence:
				var e models.JurisprudenceEntry
				if err := json.Unmarshal(f.Data, &e); err != nil {
					return err
				}
				if !casesHeader {
					md = "## Jurisprudence\n\n"
					casesHeader = true
				}
				md += jurisprudenceLine(e)
			default:
				return nil
			}
			rendered, err := r.Render(md)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		})
	},
}

func init() {
	askCmd.Flags().StringSliceP("keyword", "k", nil, "case-law search keyword (repeatable)")
	askCmd.Flags().Bool("stream", false, "stream the answer over the websocket channel")

	rootCmd.AddCommand(askCmd)
}
