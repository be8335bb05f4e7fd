package main

import (
	"context"

	"github.com/anatolykoptev/go_youtube/internal/ytserver"
	"github.com/spf13/cobra"
)

// NewTranscriptCommand creates the transcript command.
func NewTranscriptCommand(service func() *ytserver.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript [VIDEO]",
		Short: "Print a video transcript",
		Long:  `Print one page of a video transcript, or the whole transcript with --full.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			page, _ := cmd.Flags().GetInt("page")
			full, _ := cmd.Flags().GetBool("full")
			text, _ := cmd.Flags().GetBool("text")

			format := "formatted"
			if text {
				format = "text"
			}

			return run(cmd, func(ctx context.Context) (string, error) {
				if full {
					return service().GetFullTranscript(ctx, ytserver.GetFullTranscriptInput{
						Video: args[0], Language: lang, Format: format,
					})
				}
				in := ytserver.GetTranscriptInput{Video: args[0], Language: lang, Page: page, Format: format}
				if cmd.Flags().Changed("max-items") {
					n, _ := cmd.Flags().GetInt("max-items")
					in.MaxItems = &n
				}
				return service().GetTranscript(ctx, in)
			})
		},
	}

	cmd.Flags().String("lang", "", "Caption language code (default from YT_DEFAULT_LANGUAGE)")
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("max-items", 50, "Segments per page, 0 disables pagination")
	cmd.Flags().Bool("full", false, "Print the whole transcript without pagination")
	cmd.Flags().Bool("text", false, "Omit timestamps")
	cmd.Flags().StringP("output", "o", "", "Write the result to a file")
	return cmd
}
