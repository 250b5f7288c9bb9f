package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"solea/internal/media/ffprobe"
)

const (
	defaultFFmpeg  = "ffmpeg"
	defaultFFprobe = "ffprobe"
	bytesPerSample = 4
)

// CommandRunner executes an external command with optional stdin and stdout.
type CommandRunner func(ctx context.Context, stdin io.Reader, stdout io.Writer, name string, args ...string) error

// Prober reports stream metadata for a media file.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Codec decodes and encodes audio through ffmpeg.
type Codec struct {
	ffmpegBinary  string
	ffprobeBinary string
	runner        CommandRunner
	prober        Prober
}

// NewCodec creates a codec that shells out to the given binaries.
func NewCodec(ffmpegBinary, ffprobeBinary string) *Codec {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = defaultFFmpeg
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = defaultFFprobe
	}
	return &Codec{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Codec) WithCommandRunner(runner CommandRunner) {
	c.runner = runner
}

// WithProber sets a custom metadata prober (for testing).
func (c *Codec) WithProber(prober Prober) {
	c.prober = prober
}

// Decode reads path at its native sample rate and channel layout.
func (c *Codec) Decode(ctx context.Context, path string) (Track, error) {
	info, err := c.probe(ctx, path)
	if err != nil {
		return Track{}, err
	}
	rate := info.SampleRate()
	channels := info.Channels()
	if rate <= 0 || channels <= 0 {
		return Track{}, fmt.Errorf("decode %s: no usable audio stream (rate=%d channels=%d)", path, rate, channels)
	}

	sink := newPCMSink(expectedSamples(info.DurationSeconds(), rate, channels))
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-map", "0:a:0",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"pipe:1",
	}
	if err := c.run(ctx, nil, sink, args...); err != nil {
		return Track{}, fmt.Errorf("decode %s: %w", path, err)
	}

	frameBytes := int64(bytesPerSample * channels)
	if sink.bytes%frameBytes != 0 {
		return Track{}, fmt.Errorf("decode %s: truncated pcm stream (%d bytes for %d channels)", path, sink.bytes, channels)
	}
	return Track{Rate: rate, Channels: channels, Samples: sink.samples}, nil
}

// expectedSamples sizes the decode buffer from the probed duration, with one
// second of headroom for container rounding.
func expectedSamples(seconds float64, rate, channels int) int {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	return int((seconds+1)*float64(rate)) * channels
}

// pcmSink converts little-endian f32 bytes into samples as ffmpeg writes
// them, holding at most one incomplete sample in between writes.
type pcmSink struct {
	samples []float32
	pending [bytesPerSample]byte
	held    int
	bytes   int64
}

func newPCMSink(capacity int) *pcmSink {
	return &pcmSink{samples: make([]float32, 0, capacity)}
}

func (s *pcmSink) Write(p []byte) (int, error) {
	n := len(p)
	s.bytes += int64(n)
	if s.held > 0 {
		k := copy(s.pending[s.held:], p)
		s.held += k
		p = p[k:]
		if s.held < bytesPerSample {
			return n, nil
		}
		s.samples = append(s.samples, math.Float32frombits(binary.LittleEndian.Uint32(s.pending[:])))
		s.held = 0
	}
	for len(p) >= bytesPerSample {
		s.samples = append(s.samples, math.Float32frombits(binary.LittleEndian.Uint32(p)))
		p = p[bytesPerSample:]
	}
	s.held = copy(s.pending[:], p)
	return n, nil
}

// Encode writes track to path as 16-bit FLAC. The file is written next to
// path and renamed into place once ffmpeg succeeds.
func (c *Codec) Encode(ctx context.Context, path string, track Track) error {
	if track.Rate <= 0 || track.Channels <= 0 {
		return fmt.Errorf("encode %s: invalid track (rate=%d channels=%d)", path, track.Rate, track.Channels)
	}
	if len(track.Samples)%track.Channels != 0 {
		return fmt.Errorf("encode %s: %d samples do not divide into %d channels", path, len(track.Samples), track.Channels)
	}

	var pcm bytes.Buffer
	pcm.Grow(len(track.Samples) * bytesPerSample)
	if err := binary.Write(&pcm, binary.LittleEndian, track.Samples); err != nil {
		return fmt.Errorf("encode %s: pack pcm: %w", path, err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".partial")
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "f32le",
		"-ar", strconv.Itoa(track.Rate),
		"-ac", strconv.Itoa(track.Channels),
		"-i", "pipe:0",
		"-c:a", "flac",
		"-sample_fmt", "s16",
		"-f", "flac",
		tmp,
	}
	if err := c.run(ctx, &pcm, nil, args...); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// Transcode converts any ffmpeg-readable file at src into FLAC at dst,
// keeping the native rate and channels.
func (c *Codec) Transcode(ctx context.Context, src, dst string) error {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-map", "0:a:0",
		"-vn",
		"-c:a", "flac",
		"-f", "flac",
		dst,
	}
	if err := c.run(ctx, nil, nil, args...); err != nil {
		return fmt.Errorf("transcode %s: %w", src, err)
	}
	return nil
}

// Probe returns ffprobe metadata for path.
func (c *Codec) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return c.probe(ctx, path)
}

func (c *Codec) probe(ctx context.Context, path string) (ffprobe.Result, error) {
	if c.prober != nil {
		return c.prober(ctx, path)
	}
	return ffprobe.Inspect(ctx, c.ffprobeBinary, path)
}

func (c *Codec) run(ctx context.Context, stdin io.Reader, stdout io.Writer, args ...string) error {
	if c.runner != nil {
		return c.runner(ctx, stdin, stdout, c.ffmpegBinary, args...)
	}
	return runCommand(ctx, stdin, stdout, c.ffmpegBinary, args...)
}

func runCommand(ctx context.Context, stdin io.Reader, stdout io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
