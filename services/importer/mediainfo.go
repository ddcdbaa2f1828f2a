package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"novagrab/config"
	"novagrab/services/augment"
)

// ErrFFprobeDisabled is returned by FFprobe when no binary is configured.
var ErrFFprobeDisabled = errors.New("ffprobe not configured")

const probeTimeout = 30 * time.Second

type settingsProvider interface {
	Load() (config.Settings, error)
}

// FFprobe reads stream properties of a local media file with the ffprobe
// binary named in the library settings.
type FFprobe struct {
	cfg settingsProvider
}

func NewFFprobe(cfg settingsProvider) *FFprobe {
	return &FFprobe{cfg: cfg}
}

// MediaInfo runs ffprobe on path and returns its first video and audio
// stream as a media-info signal.
func (p *FFprobe) MediaInfo(ctx context.Context, path string) (augment.MediaInfoSignal, error) {
	settings, err := p.cfg.Load()
	if err != nil {
		return augment.MediaInfoSignal{}, fmt.Errorf("load settings: %w", err)
	}
	bin := strings.TrimSpace(settings.Library.FFprobePath)
	if bin == "" {
		return augment.MediaInfoSignal{}, ErrFFprobeDisabled
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-i", path,
	}
	output, err := exec.CommandContext(probeCtx, bin, args...).Output()
	if err != nil {
		return augment.MediaInfoSignal{}, fmt.Errorf("ffprobe execution: %w", err)
	}
	return parseStreams(output)
}

// parseStreams reads the JSON output of ffprobe -show_streams.
func parseStreams(output []byte) (augment.MediaInfoSignal, error) {
	var probeData struct {
		Streams []struct {
			CodecType        string `json:"codec_type"`
			CodecName        string `json:"codec_name"`
			Width            int    `json:"width"`
			Height           int    `json:"height"`
			BitsPerSample    int    `json:"bits_per_sample"`
			BitsPerRawSample string `json:"bits_per_raw_sample"`
			BitRate          string `json:"bit_rate"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &probeData); err != nil {
		return augment.MediaInfoSignal{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var sig augment.MediaInfoSignal
	seenVideo, seenAudio := false, false
	for _, stream := range probeData.Streams {
		codec := strings.ToLower(strings.TrimSpace(stream.CodecName))
		switch stream.CodecType {
		case "video":
			// Cover art in audio files shows up as a video stream.
			if seenVideo || codec == "mjpeg" || codec == "png" {
				continue
			}
			seenVideo = true
			sig.Width = stream.Width
			sig.Height = stream.Height
			sig.VideoCodec = codec
		case "audio":
			if seenAudio {
				continue
			}
			seenAudio = true
			sig.AudioFormat = audioFormat(codec)
			sig.AudioBitsPerSample = stream.BitsPerSample
			if bits, err := strconv.Atoi(stream.BitsPerRawSample); err == nil && bits > 0 {
				sig.AudioBitsPerSample = bits
			}
			if rate, err := strconv.Atoi(stream.BitRate); err == nil && rate > 0 {
				sig.AudioBitrateKbps = rate / 1000
			}
		}
	}
	return sig, nil
}

// audioFormat maps ffprobe codec names onto the format names the media-info
// augmenter understands.
func audioFormat(codec string) string {
	switch {
	case strings.HasPrefix(codec, "pcm_"):
		return "pcm"
	case codec == "mp3", codec == "mp3float":
		return "mp3"
	}
	return codec
}
