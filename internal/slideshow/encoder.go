package slideshow

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Encoder runs one external encode invocation. Success is a zero exit code;
// anything else must come back as an error carrying diagnostics.
type Encoder interface {
	Run(ctx context.Context, args []string) error
}

// FFmpeg invokes the ffmpeg binary via os/exec, capturing its stderr for
// failure reporting.
type FFmpeg struct {
	path   string
	logger zerolog.Logger
}

// NewFFmpeg constructs an FFmpeg encoder. path may be a bare binary name
// resolved via PATH or an absolute location.
func NewFFmpeg(path string, logger zerolog.Logger) *FFmpeg {
	if strings.TrimSpace(path) == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, logger: logger}
}

func (f *FFmpeg) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug().Str("bin", f.path).Int("args", len(args)).Msg("encode: starting ffmpeg")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s (args: %s)",
			err, tail(stderr.String(), 1200), tail(strings.Join(args, " "), 400))
	}
	return nil
}

// tail returns the last n bytes of s, trimmed. Encoder diagnostics put the
// useful lines at the end.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
