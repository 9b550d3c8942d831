package vad

import (
	"fmt"

	"github.com/streamer45/silero-vad-go/speech"
)

// Silero wraps the Silero VAD ONNX model behind the Detector interface.
// The model only accepts 16 kHz mono input; feed it audio extracted at
// that rate (the energy detector covers arbitrary rates).
type Silero struct {
	// ModelPath points at the silero_vad.onnx file.
	ModelPath string

	// Threshold is the speech probability cutoff. Zero defaults to 0.5.
	Threshold float32

	// MinSilenceMs is the minimum silence length separating two speech
	// regions. Zero defaults to 300 ms.
	MinSilenceMs int
}

// DetectSpeech implements Detector. A fresh detector is created and
// destroyed per call; the ONNX session is not reusable across sample
// rates and clips are short enough that setup cost does not matter.
func (s *Silero) DetectSpeech(samples []float64, sampleRate int) ([]Region, error) {
	if sampleRate != 16000 {
		return nil, fmt.Errorf("vad: silero requires 16kHz input, got %d Hz", sampleRate)
	}

	threshold := s.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	minSilence := s.MinSilenceMs
	if minSilence == 0 {
		minSilence = 300
	}

	sd, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            s.ModelPath,
		SampleRate:           sampleRate,
		Threshold:            threshold,
		MinSilenceDurationMs: minSilence,
	})
	if err != nil {
		return nil, fmt.Errorf("vad: create silero detector: %w", err)
	}
	defer sd.Destroy()

	pcm := make([]float32, len(samples))
	for i, v := range samples {
		pcm[i] = float32(v)
	}
	segments, err := sd.Detect(pcm)
	if err != nil {
		return nil, fmt.Errorf("vad: silero detect: %w", err)
	}

	regions := make([]Region, 0, len(segments))
	total := float64(len(samples)) / float64(sampleRate)
	for _, seg := range segments {
		end := seg.SpeechEndAt
		if end <= 0 {
			// Zero end means speech runs to the end of the buffer.
			end = total
		}
		regions = append(regions, Region{Start: seg.SpeechStartAt, End: end})
	}
	return regions, nil
}
