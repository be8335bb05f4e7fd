package main

import (
	"context"

	"github.com/anatolykoptev/go_youtube/internal/ytserver"
	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(service func() *ytserver.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [VIDEO] [QUERY]",
		Short: "Search a video transcript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			contextSize, _ := cmd.Flags().GetInt("context")

			return run(cmd, func(ctx context.Context) (string, error) {
				return service().SearchTranscript(ctx, ytserver.SearchTranscriptInput{
					Video:    args[0],
					Query:    args[1],
					Language: lang,
					Context:  &contextSize,
				})
			})
		},
	}

	cmd.Flags().String("lang", "", "Caption language code (default from YT_DEFAULT_LANGUAGE)")
	cmd.Flags().Int("context", 2, "Lines of context around each match")
	cmd.Flags().StringP("output", "o", "", "Write the result to a file")
	return cmd
}
