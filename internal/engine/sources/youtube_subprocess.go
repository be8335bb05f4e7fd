package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
)

// CmdRunner executes external commands.
type CmdRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// NewCmdRunner returns a CmdRunner backed by os/exec.
func NewCmdRunner() CmdRunner {
	return execRunner{}
}

// Run returns the command's stdout. On a non-zero exit the stdout read so far
// is returned together with the *exec.ExitError.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// SubprocessTranscripts runs an external command as `<argv...> <videoID> <language>`
// and reads one JSON reply from its stdout:
//
//	{"success": true, "data": {"videoId": "...", "transcript": [{"text","start","duration"}], "language": "en"}}
//	{"success": false, "error": "..."}
type SubprocessTranscripts struct {
	runner  CmdRunner
	argv    []string
	timeout time.Duration
	titles  TitleLookup // optional
}

// NewSubprocessTranscripts creates a fetcher for argv. titles may be nil.
func NewSubprocessTranscripts(runner CmdRunner, argv []string, timeout time.Duration, titles TitleLookup) *SubprocessTranscripts {
	return &SubprocessTranscripts{runner: runner, argv: argv, timeout: timeout, titles: titles}
}

type subprocessReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		VideoID    string            `json:"videoId"`
		Title      string            `json:"title"`
		Language   string            `json:"language"`
		Transcript []youtube.Segment `json:"transcript"`
	} `json:"data"`
}

// FetchTranscript implements TranscriptFetcher.
func (s *SubprocessTranscripts) FetchTranscript(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error) {
	if len(s.argv) == 0 {
		return nil, errors.New("transcript command not configured")
	}
	engine.IncrSubprocessRuns()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := make([]string, 0, len(s.argv)+1)
	args = append(args, s.argv[1:]...)
	args = append(args, videoID, language)
	out, runErr := s.runner.Run(runCtx, s.argv[0], args...)

	line := lastJSONLine(out)
	var reply subprocessReply
	if line == nil || json.Unmarshal(line, &reply) != nil {
		if runErr != nil {
			return nil, fmt.Errorf("transcript command: %w", runErr)
		}
		return nil, errors.New("transcript command: no JSON reply on stdout")
	}
	if !reply.Success || reply.Data == nil {
		if reply.Error != "" {
			return nil, errors.New(reply.Error)
		}
		return nil, errors.New("transcript command failed")
	}

	result := &youtube.TranscriptResult{
		VideoID:  reply.Data.VideoID,
		Title:    reply.Data.Title,
		Language: reply.Data.Language,
		Segments: reply.Data.Transcript,
	}
	if result.VideoID == "" {
		result.VideoID = videoID
	}
	if result.Title == "" && s.titles != nil {
		title, err := s.titles.VideoTitle(ctx, videoID)
		if err != nil {
			slog.Debug("youtube: title lookup failed", slog.String("id", videoID), slog.Any("error", err))
		}
		result.Title = title
	}
	return result, nil
}

// lastJSONLine returns the last stdout line that looks like a JSON object.
// Libraries used by the command may print warnings before the reply.
func lastJSONLine(out []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return nil
}
