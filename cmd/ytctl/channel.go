package main

import (
	"context"

	"github.com/anatolykoptev/go_youtube/internal/ytserver"
	"github.com/spf13/cobra"
)

// NewChannelCommand creates the channel command.
func NewChannelCommand(service func() *ytserver.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel [CHANNEL]",
		Short: "List the latest uploads of a channel",
		Long:  `List channel uploads. CHANNEL is an @handle, a UC channel ID, or a channel URL.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxResults, _ := cmd.Flags().GetInt("max")
			format, _ := cmd.Flags().GetString("format")

			return run(cmd, func(ctx context.Context) (string, error) {
				return service().ChannelVideos(ctx, ytserver.ChannelVideosInput{
					Channel:    args[0],
					MaxResults: maxResults,
					Format:     format,
				})
			})
		},
	}

	cmd.Flags().Int("max", ytserver.DefaultMaxResults, "Maximum number of videos")
	cmd.Flags().String("format", "detailed", "detailed, list, or ids_only")
	cmd.Flags().StringP("output", "o", "", "Write the result to a file")
	return cmd
}
