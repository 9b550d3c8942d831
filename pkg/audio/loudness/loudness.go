// Package loudness implements ITU-R BS.1770-4 integrated loudness
// measurement and gain-based normalization for mono audio.
//
// Measurement runs over 400 ms analysis blocks with 75% overlap, applies
// K-weighting (a high-shelf stage modeling head acoustics followed by a
// high-pass stage), and gates blocks first at -70 LKFS absolute and then
// 10 LU below the ungated mean.
package loudness

import (
	"errors"
	"math"
)

// ErrSilent is returned when the input has no gated blocks to measure,
// which happens for silent or near-silent clips. Callers typically skip
// normalization instead of failing.
var ErrSilent = errors.New("loudness: no measurable blocks above gate")

// ErrTooShort is returned when the input is shorter than one analysis block.
var ErrTooShort = errors.New("loudness: input shorter than one analysis block")

const (
	absoluteGate = -70.0
	relativeGate = -10.0
	offset       = -0.691
)

// Meter measures integrated loudness at a fixed sample rate.
type Meter struct {
	sampleRate int
	blockSize  float64
	shelf      biquad
	highpass   biquad
}

// NewMeter creates a meter for the given sample rate. blockSize is the
// analysis block length in seconds; 0 means the standard 400 ms.
func NewMeter(sampleRate int, blockSize float64) *Meter {
	if blockSize <= 0 {
		blockSize = 0.400
	}
	return &Meter{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		shelf:      highShelf(sampleRate),
		highpass:   highPass(sampleRate),
	}
}

// Integrated returns the gated integrated loudness of mono samples in LUFS.
func (m *Meter) Integrated(samples []float64) (float64, error) {
	block := int(m.blockSize * float64(m.sampleRate))
	if block <= 0 || len(samples) < block {
		return 0, ErrTooShort
	}

	weighted := m.shelf.apply(m.highpass.apply(samples))

	// Mean square per 400 ms block, 75% overlap.
	step := block / 4
	var ms []float64
	for i := 0; i+block <= len(weighted); i += step {
		var sum float64
		for _, v := range weighted[i : i+block] {
			sum += v * v
		}
		ms = append(ms, sum/float64(block))
	}

	blockLoudness := func(v float64) float64 {
		return offset + 10*math.Log10(v)
	}

	// Absolute gate.
	var passed []float64
	for _, v := range ms {
		if v > 0 && blockLoudness(v) > absoluteGate {
			passed = append(passed, v)
		}
	}
	if len(passed) == 0 {
		return 0, ErrSilent
	}

	// Relative gate, 10 LU under the mean of the absolutely gated blocks.
	var sum float64
	for _, v := range passed {
		sum += v
	}
	threshold := blockLoudness(sum/float64(len(passed))) + relativeGate

	var gatedSum float64
	var gatedCount int
	for _, v := range passed {
		if blockLoudness(v) > threshold {
			gatedSum += v
			gatedCount++
		}
	}
	if gatedCount == 0 {
		return 0, ErrSilent
	}
	return blockLoudness(gatedSum / float64(gatedCount)), nil
}

// Gain scales samples in place by the linear gain matching a dB change.
func Gain(samples []float64, db float64) {
	g := math.Pow(10, db/20)
	for i := range samples {
		samples[i] *= g
	}
}

// NormalizePeak scales samples in place so the absolute peak sits at the
// given dBFS level. Silent input is left untouched.
func NormalizePeak(samples []float64, peakDB float64) {
	var peak float64
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	target := math.Pow(10, peakDB/20)
	g := target / peak
	for i := range samples {
		samples[i] *= g
	}
}

// biquad is a direct form I second-order IIR filter section.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (f biquad) apply(in []float64) []float64 {
	out := make([]float64, len(in))
	var x1, x2, y1, y2 float64
	for i, x := range in {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		out[i] = y
		x2, x1 = x1, x
		y2, y1 = y1, y
	}
	return out
}

// BS.1770 defines the K-weighting coefficients at 48 kHz; for other rates
// the two stages are re-derived from their analog prototypes so the meter
// stays valid at the pipeline's 44.1 kHz clips.
const (
	shelfGainDB = 3.999843853973347
	shelfQ      = 0.7071752369554196
	shelfFreq   = 1681.974450955533

	highpassQ    = 0.5003270373238773
	highpassFreq = 38.13547087602444
)

func highShelf(sampleRate int) biquad {
	a := math.Pow(10, shelfGainDB/40)
	w0 := 2 * math.Pi * shelfFreq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * shelfQ)
	cosw := math.Cos(w0)

	b0 := a * ((a + 1) + (a-1)*cosw + 2*math.Sqrt(a)*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosw)
	b2 := a * ((a + 1) + (a-1)*cosw - 2*math.Sqrt(a)*alpha)
	a0 := (a + 1) - (a-1)*cosw + 2*math.Sqrt(a)*alpha
	a1 := 2 * ((a - 1) - (a+1)*cosw)
	a2 := (a + 1) - (a-1)*cosw - 2*math.Sqrt(a)*alpha

	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func highPass(sampleRate int) biquad {
	w0 := 2 * math.Pi * highpassFreq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * highpassQ)
	cosw := math.Cos(w0)

	b0 := (1 + cosw) / 2
	b1 := -(1 + cosw)
	b2 := (1 + cosw) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha

	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}
