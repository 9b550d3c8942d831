// Package wavio reads and writes WAV files as float sample buffers.
//
// The pipeline works on mono float64 samples in [-1, 1]; this package is
// the boundary between that representation and 16-bit PCM WAV on disk.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Buffer holds decoded audio samples. Multi-channel data is interleaved.
type Buffer struct {
	Data       []float64
	SampleRate int
	Channels   int
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 || b.Channels == 0 {
		return 0
	}
	return float64(len(b.Data)) / float64(b.Channels) / float64(b.SampleRate)
}

// Mono downmixes the buffer to one channel by averaging. A buffer that is
// already mono is returned unchanged.
func (b *Buffer) Mono() *Buffer {
	if b.Channels <= 1 {
		return b
	}
	frames := len(b.Data) / b.Channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < b.Channels; c++ {
			sum += b.Data[i*b.Channels+c]
		}
		out[i] = sum / float64(b.Channels)
	}
	return &Buffer{Data: out, SampleRate: b.SampleRate, Channels: 1}
}

// Read decodes a WAV file into a float buffer.
func Read(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wavio: %s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: read PCM from %s: %w", path, err)
	}

	fbuf := buf.AsFloatBuffer()
	out := &Buffer{
		Data:       make([]float64, len(fbuf.Data)),
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}
	// AsFloatBuffer keeps integer magnitudes; scale to [-1, 1].
	scale := 1.0
	if dec.BitDepth > 0 {
		scale = 1.0 / float64(int(1)<<(dec.BitDepth-1))
	}
	for i, v := range fbuf.Data {
		out.Data[i] = v * scale
	}
	return out, nil
}

// Write encodes mono float samples as a 16-bit PCM WAV file. The file is
// written to a temporary sibling and renamed into place so interrupted
// writes never leave a torn file at the destination path.
func Write(path string, data []float64, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	intData := make([]int, len(data))
	for i, sample := range data {
		if sample > 1 {
			sample = 1
		}
		if sample < -1 {
			sample = -1
		}
		intData[i] = int(sample * 32767.0)
	}
	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           intData,
		SourceBitDepth: 16,
	})
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("wavio: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("wavio: finalize %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
