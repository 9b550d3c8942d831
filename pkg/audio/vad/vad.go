// Package vad locates speech and silence regions in audio buffers.
//
// The default detector is energy based: frame RMS against a noise floor
// estimated from the quiet percentile of the clip. A Silero ONNX-backed
// detector implements the same interface for callers that want a neural
// model instead.
package vad

// Region is a detected speech region, in seconds from the buffer start.
type Region struct {
	Start float64
	End   float64
}

// Detector finds speech regions in mono samples.
type Detector interface {
	DetectSpeech(samples []float64, sampleRate int) ([]Region, error)
}

// SilenceStarts returns the start time of every silence region implied by
// the speech regions over a buffer of the given total duration. Regions
// must be ordered and non-overlapping.
func SilenceStarts(speech []Region, total float64) []float64 {
	var starts []float64
	cursor := 0.0
	for _, r := range speech {
		if r.Start > cursor {
			starts = append(starts, cursor)
		}
		if r.End > cursor {
			cursor = r.End
		}
	}
	if cursor < total {
		starts = append(starts, cursor)
	}
	return starts
}
