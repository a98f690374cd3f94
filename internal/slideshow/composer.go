package slideshow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tokolink/internal/domain"
	"tokolink/internal/fetch"
)

// Output profile: portrait H.264/AAC MP4 suitable for web and mobile players.
const (
	frameWidth  = 1080
	frameHeight = 1920
	frameRate   = 30
	audioVolume = 0.5
	audioRate   = 44100
)

// Fetch profiles. Audio files are typically larger and hosted less reliably
// than product images, so they get a longer timeout and one more retry.
var (
	imageFetchOpts = fetch.Options{
		Timeout:      60 * time.Second,
		MaxRedirects: 5,
		Retries:      1,
		RetryDelay:   time.Second,
	}
	audioFetchOpts = fetch.Options{
		Timeout:      150 * time.Second,
		MaxRedirects: 6,
		Retries:      2,
		RetryDelay:   time.Second,
	}
)

// Fetcher is the download contract the composer needs; satisfied by
// *fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string, opts fetch.Options) error
}

// Composer assembles ordered product images (and an optional audio track)
// into a single encoded slideshow video.
type Composer struct {
	fetcher Fetcher
	encoder Encoder
	logger  zerolog.Logger
}

// NewComposer wires a Composer from its collaborators.
func NewComposer(fetcher Fetcher, encoder Encoder, logger zerolog.Logger) *Composer {
	return &Composer{fetcher: fetcher, encoder: encoder, logger: logger}
}

// Compose downloads every image (skipping blank entries), the audio track if
// requested, and runs one encode producing outputPath. The scratch directory
// it works in is always removed, success or failure.
func (c *Composer) Compose(ctx context.Context, imageURLs []string, audioURL, outputPath string, opts domain.RenderOptions) error {
	if len(imageURLs) == 0 {
		return errors.New("at least one image required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	opts = opts.Normalize()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}
	workDir, err := os.MkdirTemp(filepath.Dir(outputPath), "slideshow-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	var images []string
	for i, raw := range imageURLs {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		dest := filepath.Join(workDir, fmt.Sprintf("slide-%03d%s", i, urlExt(raw, ".jpg")))
		if err := c.fetcher.Fetch(ctx, raw, dest, imageFetchOpts); err != nil {
			c.logger.Warn().Err(err).Str("url", raw).Msg("compose: image download failed, skipping")
			continue
		}
		images = append(images, dest)
	}
	if len(images) == 0 {
		return errors.New("no valid images could be downloaded")
	}

	audioPath := ""
	if strings.TrimSpace(audioURL) != "" {
		audioPath = filepath.Join(workDir, "audio"+urlExt(audioURL, ".mp3"))
		if err := c.fetcher.Fetch(ctx, audioURL, audioPath, audioFetchOpts); err != nil {
			return fmt.Errorf("download audio: %w", err)
		}
	}

	args := buildEncodeArgs(images, audioPath, outputPath, opts)
	if err := c.encoder.Run(ctx, args); err != nil {
		return err
	}

	c.logger.Info().Int("slides", len(images)).Bool("audio", audioPath != "").
		Str("output", outputPath).Msg("compose: encode finished")
	return nil
}

// buildEncodeArgs constructs the full ffmpeg invocation: one looped input
// per slide, the optional audio input, the filter graph, and the output
// profile with the container finalized for progressive playback.
func buildEncodeArgs(images []string, audioPath, outputPath string, opts domain.RenderOptions) []string {
	args := []string{"-y"}
	for _, img := range images {
		args = append(args, "-loop", "1", "-t", ftoa(opts.SlideDuration), "-i", img)
	}
	hasAudio := audioPath != ""
	if hasAudio {
		args = append(args, "-i", audioPath)
	}

	args = append(args, "-filter_complex", buildFilterGraph(len(images), hasAudio, opts))
	args = append(args, "-map", "[v]")
	if hasAudio {
		args = append(args, "-map", "[a]", "-c:a", "aac", "-b:a", "128k", "-shortest")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-profile:v", "high",
		"-level", "4.0",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(frameRate),
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

// buildFilterGraph normalizes every slide to an identical frame, applies the
// fade approximation at slide boundaries, concatenates in input order, and
// conditions the audio to exactly the video duration.
//
// All non-cut transition styles render as the same cross-fade approximation;
// directional styles are accepted but not given a distinct effect.
func buildFilterGraph(n int, hasAudio bool, opts domain.RenderOptions) string {
	transition := opts.EffectiveTransition()

	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,"+
				"pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,"+
				"fps=%d,trim=duration=%s,setpts=PTS-STARTPTS,setsar=1,setdar=%d/%d,format=yuv420p",
			i, frameWidth, frameHeight, frameWidth, frameHeight,
			frameRate, ftoa(opts.SlideDuration), frameWidth, frameHeight)
		if n > 1 && transition > 0 {
			if i > 0 {
				fmt.Fprintf(&b, ",fade=t=in:st=0:d=%s", ftoa(transition))
			}
			if i < n-1 {
				fmt.Fprintf(&b, ",fade=t=out:st=%s:d=%s",
					ftoa(opts.SlideDuration-transition), ftoa(transition))
			}
		}
		fmt.Fprintf(&b, "[v%d];", i)
	}

	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[v%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=0[v]", n)

	if hasAudio {
		total := float64(n) * opts.SlideDuration
		fmt.Fprintf(&b,
			";[%d:a]aresample=%d,aformat=channel_layouts=stereo,volume=%s,apad,atrim=duration=%s[a]",
			n, audioRate, ftoa(audioVolume), ftoa(total))
	}

	return b.String()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// urlExt extracts a file extension from a URL path, ignoring any query
// string, falling back when the path carries none.
func urlExt(raw, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
		return ext
	}
	return fallback
}
