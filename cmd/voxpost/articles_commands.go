package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voxpost/internal/article"
)

func newArticlesCommand(ctx *commandContext) *cobra.Command {
	articlesCmd := &cobra.Command{
		Use:   "articles",
		Short: "Inspect generated articles",
	}
	articlesCmd.AddCommand(newArticlesListCommand(ctx))
	articlesCmd.AddCommand(newArticlesShowCommand(ctx))
	return articlesCmd
}

func newArticlesListCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's articles, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := ctx.client().ListArticles(cmd.Context(), strings.TrimSpace(userID), limit)
			if err != nil {
				return ctx.wrapDialError(err)
			}
			out := cmd.OutOrStdout()
			if len(articles) == 0 {
				fmt.Fprintf(out, "No articles for user %s\n", userID)
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(articles))
			for _, a := range articles {
				rows = append(rows, []string{
					a.ArticleID,
					colorizeStatus(string(a.Status), articleStatusKind(a.Status), colorize),
					displayTitle(a),
					a.BlogType,
					formatLocalTime(a.CreatedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Title", "Type", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the articles (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of articles (server default when 0)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newArticlesShowCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var withContent bool

	cmd := &cobra.Command{
		Use:   "show <article-id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.client().GetArticle(cmd.Context(), strings.TrimSpace(userID), strings.TrimSpace(args[0]))
			if err != nil {
				return ctx.wrapDialError(err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(displayTitle(a), colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Status", articleStatusKind(a.Status), string(a.Status), colorize))
			fmt.Fprintln(out, renderStatusLine("Article", statusInfo, a.ArticleID, colorize))
			fmt.Fprintln(out, renderStatusLine("Language", statusInfo, a.Language, colorize))
			fmt.Fprintln(out, renderStatusLine("Style", statusInfo, a.SelectedModel, colorize))
			if a.CoverImageURL != "" {
				fmt.Fprintln(out, renderStatusLine("Cover", statusInfo, a.CoverImageURL, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, formatLocalTime(a.UpdatedAt), colorize))
			if withContent || a.Status == article.StatusFailed {
				fmt.Fprintln(out)
				fmt.Fprintln(out, a.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the article (required)")
	cmd.Flags().BoolVar(&withContent, "content", false, "Print the article body")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func displayTitle(a *article.Article) string {
	if title := strings.TrimSpace(a.Title); title != "" {
		return title
	}
	if a.Status == article.StatusProcessing {
		return "(generating)"
	}
	return "(untitled)"
}

func formatLocalTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
