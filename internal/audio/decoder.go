package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Decoded is the output of a codec decode: interleaved integer PCM plus the
// metadata needed to normalize it.
type Decoded struct {
	Data        []byte
	SampleRate  int
	Channels    int
	SampleWidth int
}

// Decoder turns an encoded audio container (webm, ogg, mp4, ...) into raw
// PCM. Implementations do no downmixing or resampling; that stays with the
// Normalizer.
type Decoder interface {
	Decode(ctx context.Context, data []byte, format string) (*Decoded, error)
}

// FFmpegDecoder shells out to ffmpeg/ffprobe. The container is written to a
// temp file because ffprobe cannot seek on a pipe for every format browsers
// produce.
type FFmpegDecoder struct {
	ffmpegPath  string
	ffprobePath string
	tmpDir      string
}

func NewFFmpegDecoder(ffmpegPath, ffprobePath string) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegDecoder{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tmpDir:      os.TempDir(),
	}
}

func (d *FFmpegDecoder) Decode(ctx context.Context, data []byte, format string) (*Decoded, error) {
	path := filepath.Join(d.tmpDir, "fragment_"+uuid.New().String()+"."+sanitizeExt(format))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write fragment: %w", err)
	}
	defer os.Remove(path)

	sampleRate, channels, err := d.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	// ffmpeg -i fragment -f s16le pipe:1, keeping the source rate and
	// channel count so the caller controls downmix and resample.
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %s", firstLine(stderr.String(), err))
	}

	return &Decoded{
		Data:        stdout.Bytes(),
		SampleRate:  sampleRate,
		Channels:    channels,
		SampleWidth: 2,
	}, nil
}

func (d *FFmpegDecoder) probe(ctx context.Context, path string) (sampleRate, channels int, err error) {
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "csv=p=0",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, 0, fmt.Errorf("ffprobe: %s", firstLine(stderr.String(), err))
	}

	fields := strings.Split(strings.TrimSpace(stdout.String()), ",")
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("ffprobe: unexpected output %q", stdout.String())
	}

	sampleRate, err = strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || sampleRate <= 0 {
		return 0, 0, fmt.Errorf("ffprobe: bad sample rate %q", fields[0])
	}
	channels, err = strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || channels <= 0 {
		return 0, 0, fmt.Errorf("ffprobe: bad channel count %q", fields[1])
	}
	return sampleRate, channels, nil
}

func sanitizeExt(format string) string {
	ext := strings.ToLower(strings.TrimSpace(format))
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "bin"
		}
	}
	if ext == "" {
		return "bin"
	}
	return ext
}

func firstLine(stderr string, fallback error) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fallback.Error()
	}
	lines := strings.Split(stderr, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
