package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png" // ffmpeg frames are piped as PNG
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"media-library/internal/logging"
)

// ErrUnavailable is returned when the required tool is not installed.
var ErrUnavailable = errors.New("video tools unavailable")

// Info describes a probed video.
type Info struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Codec      string  `json:"codec"`
	AudioCodec string  `json:"audioCodec,omitempty"`
	Container  string  `json:"container"`
}

// Codecs the media store accepts for import.
var compatibleCodecs = map[string]bool{
	"h264":  true,
	"hevc":  true,
	"mpeg4": true,
	"vp9":   true,
	"av1":   true,
}

// IsCompatibleCodec reports whether a probed video codec can be stored.
func IsCompatibleCodec(codec string) bool {
	return compatibleCodecs[strings.ToLower(codec)]
}

// Prober runs ffprobe and ffmpeg.
type Prober struct {
	FFprobe string
	FFmpeg  string

	once      sync.Once
	probePath string
	mpegPath  string
}

// NewProber returns a Prober using the binaries found on PATH.
func NewProber() *Prober {
	return &Prober{FFprobe: "ffprobe", FFmpeg: "ffmpeg"}
}

func (p *Prober) resolve() {
	p.once.Do(func() {
		if path, err := exec.LookPath(p.FFprobe); err == nil {
			p.probePath = path
		}
		if path, err := exec.LookPath(p.FFmpeg); err == nil {
			p.mpegPath = path
		}
		logging.Debug("Video tools: ffprobe=%q ffmpeg=%q", p.probePath, p.mpegPath)
	})
}

// CanProbe reports whether ffprobe is installed.
func (p *Prober) CanProbe() bool {
	if p == nil {
		return false
	}
	p.resolve()
	return p.probePath != ""
}

// CanExtractFrames reports whether ffmpeg is installed.
func (p *Prober) CanExtractFrames() bool {
	if p == nil {
		return false
	}
	p.resolve()
	return p.mpegPath != ""
}

// Probe inspects the video at path.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	if !p.CanProbe() {
		return nil, ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, p.probePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

// ProbeBytes inspects in-memory video data by staging it in a temporary
// file inside dir.
func (p *Prober) ProbeBytes(ctx context.Context, dir string, data []byte) (*Info, error) {
	if !p.CanProbe() {
		return nil, ErrUnavailable
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			logging.Warn("failed to remove probe file %s: %v", tmp.Name(), err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return p.Probe(ctx, tmp.Name())
}

type sideData struct {
	Rotation float64 `json:"rotation"`
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
		Tags      struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []sideData `json:"side_data_list"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

func parseProbeOutput(data []byte) (*Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{Container: out.Format.FormatName}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)

	foundVideo := false
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Codec = s.CodecName
			info.Width, info.Height = s.Width, s.Height
			if rotatedQuarter(s.Tags.Rotate, s.SideDataList) {
				info.Width, info.Height = info.Height, info.Width
			}
			if info.Duration == 0 {
				info.Duration, _ = strconv.ParseFloat(s.Duration, 64)
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video stream found")
	}
	return info, nil
}

func rotatedQuarter(tag string, side []sideData) bool {
	deg := 0
	if tag != "" {
		deg, _ = strconv.Atoi(tag)
	}
	for _, sd := range side {
		if sd.Rotation != 0 {
			deg = int(sd.Rotation)
		}
	}
	deg = ((deg % 360) + 360) % 360
	return deg == 90 || deg == 270
}

// PosterFrame extracts a representative frame from the video at path.
func (p *Prober) PosterFrame(ctx context.Context, path string) (image.Image, error) {
	if !p.CanExtractFrames() {
		return nil, ErrUnavailable
	}

	logging.Debug("Extracting video frame: %s", path)

	out, err := p.frame(ctx, path, "00:00:01")
	if err != nil || len(out) == 0 {
		logging.Debug("FFmpeg first attempt failed for %s: %v", path, err)
		out, err = p.frame(ctx, path, "")
		if err != nil {
			return nil, err
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

func (p *Prober) frame(ctx context.Context, path, seek string) ([]byte, error) {
	args := []string{"-v", "error"}
	if seek != "" {
		args = append(args, "-ss", seek)
	}
	args = append(args,
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.CommandContext(ctx, p.mpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}
