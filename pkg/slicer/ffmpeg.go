package slicer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// FFmpeg implements Extractor with the ffmpeg CLI. Every clip is decoded
// to 44.1 kHz mono signed 16-bit PCM so downstream processing sees one
// uniform format regardless of the source container.
type FFmpeg struct {
	// Bin is the ffmpeg executable. Empty resolves "ffmpeg" from PATH.
	Bin string
	// SampleRate overrides the 44100 Hz output rate when positive.
	SampleRate int
}

// Extract implements Extractor.
func (f *FFmpeg) Extract(ctx context.Context, source string, start, end float64, dest string) error {
	bin := f.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	rate := f.SampleRate
	if rate <= 0 {
		rate = 44100
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", source,
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-acodec", "pcm_s16le",
		dest,
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
