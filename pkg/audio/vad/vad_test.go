package vad

import (
	"math"
	"testing"
)

// tone fills [from, to) seconds of the buffer with a 440 Hz sine.
func tone(samples []float64, rate int, from, to, amp float64) {
	lo, hi := int(from*float64(rate)), int(to*float64(rate))
	for i := lo; i < hi && i < len(samples); i++ {
		samples[i] = amp * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
}

func TestEnergyDetectSpeech(t *testing.T) {
	const rate = 16000
	samples := make([]float64, rate*4)
	tone(samples, rate, 0.5, 1.5, 0.5)
	tone(samples, rate, 2.5, 3.5, 0.5)

	d := &Energy{}
	regions, err := d.DetectSpeech(samples, rate)
	if err != nil {
		t.Fatalf("DetectSpeech: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("got %d regions (%v), want 2", len(regions), regions)
	}

	checks := []struct{ start, end float64 }{{0.5, 1.5}, {2.5, 3.5}}
	for i, want := range checks {
		if math.Abs(regions[i].Start-want.start) > 0.1 {
			t.Errorf("region %d start = %v, want ~%v", i, regions[i].Start, want.start)
		}
		if math.Abs(regions[i].End-want.end) > 0.1 {
			t.Errorf("region %d end = %v, want ~%v", i, regions[i].End, want.end)
		}
	}
}

func TestEnergyShortGapMerged(t *testing.T) {
	const rate = 16000
	samples := make([]float64, rate*3)
	tone(samples, rate, 0.5, 1.0, 0.5)
	tone(samples, rate, 1.1, 1.6, 0.5) // 100 ms dip, below the 300 ms minimum

	d := &Energy{}
	regions, err := d.DetectSpeech(samples, rate)
	if err != nil {
		t.Fatalf("DetectSpeech: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("got %d regions (%v), want 1 merged region", len(regions), regions)
	}
}

func TestEnergySilence(t *testing.T) {
	d := &Energy{}
	regions, err := d.DetectSpeech(make([]float64, 16000), 16000)
	if err != nil {
		t.Fatalf("DetectSpeech: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("got %d regions on silence, want 0", len(regions))
	}
}

func TestSilenceStarts(t *testing.T) {
	speech := []Region{{Start: 0.5, End: 1.5}, {Start: 2.5, End: 3.5}}

	got := SilenceStarts(speech, 4.0)
	want := []float64{0.0, 1.5, 3.5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("silence start %d = %v, want %v", i, got[i], want[i])
		}
	}

	// Speech covering the whole buffer leaves no silence.
	if got := SilenceStarts([]Region{{Start: 0, End: 4}}, 4.0); len(got) != 0 {
		t.Errorf("full-speech buffer: got %v, want none", got)
	}
}

func TestTrimBounds(t *testing.T) {
	const rate = 16000
	samples := make([]float64, rate*3)
	tone(samples, rate, 1.0, 2.0, 0.5)

	lo, hi := TrimBounds(samples, rate, 30)
	if got := float64(lo) / rate; math.Abs(got-1.0) > 0.1 {
		t.Errorf("trim lo = %vs, want ~1.0s", got)
	}
	if got := float64(hi) / rate; math.Abs(got-2.0) > 0.1 {
		t.Errorf("trim hi = %vs, want ~2.0s", got)
	}

	if lo, hi := TrimBounds(make([]float64, rate), rate, 30); lo != 0 || hi != 0 {
		t.Errorf("silent clip trim = (%d, %d), want (0, 0)", lo, hi)
	}
}
