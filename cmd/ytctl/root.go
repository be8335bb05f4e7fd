package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/ytserver"
	"github.com/spf13/cobra"
)

const commandTimeout = 2 * time.Minute

// NewRootCommand builds the ytctl command tree. A nil svc is created from
// the environment before the first subcommand runs.
func NewRootCommand(svc *ytserver.Service) *cobra.Command {
	root := &cobra.Command{
		Use:           "ytctl",
		Short:         "YouTube transcripts and channel listings",
		Long:          `Fetch, page, and search YouTube transcripts and list channel uploads.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	service := func() *ytserver.Service {
		if svc == nil {
			svc = newServiceFromEnv()
		}
		return svc
	}

	root.AddCommand(NewTranscriptCommand(service))
	root.AddCommand(NewSearchCommand(service))
	root.AddCommand(NewChannelCommand(service))
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if svc != nil {
			return svc.Close()
		}
		return nil
	}
	return root
}

func newServiceFromEnv() *ytserver.Service {
	c := engine.LoadConfig()
	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), env.Duration("CACHE_TTL", 30*time.Minute), c.CacheMaxEntries, c.CacheCleanupInterval)
	return ytserver.NewService()
}

// run executes fn under the command timeout and writes its text to --output
// or stdout.
func run(cmd *cobra.Command, fn func(ctx context.Context) (string, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	text, err := fn(ctx)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(output, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	cmd.PrintErrf("Saved to %s\n", output)
	return nil
}
