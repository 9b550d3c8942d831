package vad

import (
	"math"
	"sort"
)

// Energy is an RMS-threshold speech detector. It needs no model files and
// works at any sample rate, which makes it the default for the slicer's
// silence search over already-extracted clips.
type Energy struct {
	// WindowSec and HopSec set the RMS analysis frame. Zero values default
	// to 20 ms windows with 10 ms hops.
	WindowSec float64
	HopSec    float64

	// ThresholdRatio scales the noise floor (the 20th percentile frame
	// RMS) into the speech threshold. Zero defaults to 1.6.
	ThresholdRatio float64

	// MinSilenceSec is the shortest gap treated as real silence; shorter
	// dips stay inside the surrounding speech region. Zero defaults to
	// 0.3 s.
	MinSilenceSec float64
}

func (e *Energy) params() (win, hop, ratio, minSil float64) {
	win, hop, ratio, minSil = e.WindowSec, e.HopSec, e.ThresholdRatio, e.MinSilenceSec
	if win <= 0 {
		win = 0.020
	}
	if hop <= 0 {
		hop = 0.010
	}
	if ratio <= 0 {
		ratio = 1.6
	}
	if minSil <= 0 {
		minSil = 0.3
	}
	return
}

// DetectSpeech implements Detector.
func (e *Energy) DetectSpeech(samples []float64, sampleRate int) ([]Region, error) {
	winSec, hopSec, ratio, minSil := e.params()
	rms := frameRMS(samples, sampleRate, winSec, hopSec)
	if len(rms) == 0 {
		return nil, nil
	}

	noise := percentile(rms, 20)
	threshold := noise * ratio
	if threshold == 0 {
		// Digitally silent noise floor (no dither). Fall back to a
		// fraction of the peak so clean synthetic audio still segments.
		var peak float64
		for _, v := range rms {
			if v > peak {
				peak = v
			}
		}
		if peak == 0 {
			return nil, nil
		}
		threshold = peak * 0.05
	}

	// Raw speech frames → regions, closing gaps below the silence minimum.
	var regions []Region
	inSpeech := false
	var start float64
	for i, v := range rms {
		at := float64(i) * hopSec
		if v > threshold {
			if !inSpeech {
				inSpeech = true
				start = at
			}
			continue
		}
		if inSpeech {
			regions = append(regions, Region{Start: start, End: at + winSec})
			inSpeech = false
		}
	}
	if inSpeech {
		regions = append(regions, Region{Start: start, End: float64(len(samples)) / float64(sampleRate)})
	}

	return mergeClose(regions, minSil), nil
}

// TrimBounds returns the sample range that remains after trimming leading
// and trailing audio more than topDB below the clip's peak frame RMS,
// mirroring librosa-style head/tail silence trimming. A fully silent clip
// returns (0, 0).
func TrimBounds(samples []float64, sampleRate int, topDB float64) (lo, hi int) {
	const winSec, hopSec = 0.020, 0.010
	rms := frameRMS(samples, sampleRate, winSec, hopSec)
	if len(rms) == 0 {
		return 0, len(samples)
	}

	var peak float64
	for _, v := range rms {
		if v > peak {
			peak = v
		}
	}
	threshold := peak * math.Pow(10, -topDB/20)
	if peak == 0 {
		return 0, 0
	}

	first, last := -1, -1
	for i, v := range rms {
		if v > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0
	}

	hopSamples := int(hopSec * float64(sampleRate))
	winSamples := int(winSec * float64(sampleRate))
	lo = first * hopSamples
	hi = last*hopSamples + winSamples
	if hi > len(samples) {
		hi = len(samples)
	}
	return lo, hi
}

func mergeClose(regions []Region, maxGap float64) []Region {
	if len(regions) <= 1 {
		return regions
	}
	merged := []Region{regions[0]}
	for _, r := range regions[1:] {
		prev := &merged[len(merged)-1]
		if r.Start-prev.End <= maxGap {
			if r.End > prev.End {
				prev.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func frameRMS(samples []float64, sampleRate int, winSec, hopSec float64) []float64 {
	win := int(winSec * float64(sampleRate))
	hop := int(hopSec * float64(sampleRate))
	if win <= 0 || hop <= 0 || len(samples) < win {
		return nil
	}
	out := make([]float64, 0, 1+len(samples)/hop)
	for i := 0; i+win <= len(samples); i += hop {
		var s float64
		for j := 0; j < win; j++ {
			s += samples[i+j] * samples[i+j]
		}
		out = append(out, math.Sqrt(s/float64(win)))
	}
	return out
}

func percentile(xs []float64, p int) float64 {
	if len(xs) == 0 {
		return 0
	}
	tmp := append([]float64(nil), xs...)
	sort.Float64s(tmp)
	idx := int(math.Round(float64(p) / 100.0 * float64(len(tmp)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(tmp) {
		idx = len(tmp) - 1
	}
	return tmp[idx]
}
