// Package segmenter decides exact clip boundaries for recognized segments.
//
// Raw word-level timestamps from the recognizer are biased in known ways:
// the first word of a segment tends to absorb trailing audio from the
// previous utterance, segment tails get cut before the final vowel decays,
// and the model sometimes leaves timing gaps between adjacent utterances.
// The refiner corrects these biases with local heuristics over each segment
// and its immediate neighbor, then filters out segments that cannot become
// useful dataset clips.
package segmenter

import (
	"unicode/utf8"

	"github.com/tsukumijima/Aivis/pkg/transcript"
)

// DropReason explains why a segment was rejected.
type DropReason string

const (
	// DropNone marks a kept segment.
	DropNone DropReason = ""
	// DropTooShortText rejects transcripts under the minimum rune count.
	DropTooShortText DropReason = "transcript too short"
	// DropHallucination rejects known recognizer hallucination phrases.
	DropHallucination DropReason = "hallucination phrase"
	// DropZeroLength rejects segments whose adjusted range collapsed,
	// which indicates the recognizer failed to produce usable timestamps.
	DropZeroLength DropReason = "zero length range"
	// DropTooShortAudio rejects clips under the minimum duration.
	DropTooShortAudio DropReason = "duration under minimum"
)

// Boundary is the refined decision for one segment: the adjusted clip
// range, the normalized transcript, and whether the segment survives.
type Boundary struct {
	Index int
	Start float64
	End   float64
	Text  string
	Keep  bool
	Drop  DropReason
}

// Thresholds holds the timing heuristics. The defaults are tuned for
// Japanese phonotactics (most single tokens pronounce in under 0.425 s);
// the comparison operators are all >= and must stay that way for boundary
// values like an exactly 0.425 s first word to behave identically.
type Thresholds struct {
	// LongFirstWord flags a first word long enough to carry bleed-over
	// audio from the neighboring utterance.
	LongFirstWord float64

	// HeadTrim is subtracted from the segment start when the first word is
	// flagged, removing the bled-over vowel or consonant.
	HeadTrim float64

	// SilenceFloor is the first-word duration beyond which the excess is
	// treated as mis-attributed silence: a single word essentially never
	// takes a full second to pronounce.
	SilenceFloor float64

	// TailExtend is added to the segment end when the next segment's first
	// word is flagged, keeping the final vowel from being clipped.
	TailExtend float64

	// TailExtendCap bounds the extra tail extension taken from an
	// overlong next first word, so the clip cannot run away into the
	// following utterance.
	TailExtendCap float64

	// GapFillCap bounds how far the end may chase the next segment's
	// start across a recognizer timing gap, so long silences are not
	// absorbed into the clip.
	GapFillCap float64

	// MinDuration is the shortest clip worth keeping, in seconds.
	MinDuration float64

	// MinTranscript is the shortest normalized transcript worth keeping,
	// in runes (terminal punctuation included).
	MinTranscript int
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LongFirstWord: 0.425,
		HeadTrim:      0.25,
		SilenceFloor:  1.0,
		TailExtend:    0.25,
		TailExtendCap: 1.0,
		GapFillCap:    3.0,
		MinDuration:   1.0,
		MinTranscript: 4,
	}
}

// Refiner computes refined boundaries for ordered segment sequences.
type Refiner struct {
	thresholds Thresholds
	normalizer *transcript.Normalizer
	denylist   map[string]struct{}
}

// New creates a Refiner. The denylist holds normalized hallucination
// phrases (recognizer artifacts such as sign-off lines) to reject outright.
func New(th Thresholds, n *transcript.Normalizer, denylist []string) *Refiner {
	deny := make(map[string]struct{}, len(denylist))
	for _, phrase := range denylist {
		deny[phrase] = struct{}{}
	}
	return &Refiner{thresholds: th, normalizer: n, denylist: deny}
}

// Refine computes one Boundary per input segment, in order. Rejected
// segments are returned with Keep=false and a reason rather than being
// dropped, so callers can log and audit every decision.
//
// totalDuration is the length of the source audio in seconds; the final
// segment's end is pinned to it so the tail of the recording is claimed
// instead of leaving a gap.
func (r *Refiner) Refine(segments []transcript.Segment, totalDuration float64) []Boundary {
	th := r.thresholds
	out := make([]Boundary, 0, len(segments))

	for i, seg := range segments {
		b := Boundary{Index: i, Start: seg.Start, End: seg.End}
		b.Text = r.normalizer.Normalize(seg.Text)

		// Text rejects run first: no point adjusting timing for a
		// transcript that can never enter the dataset.
		if utf8.RuneCountInString(b.Text) < th.MinTranscript {
			b.Drop = DropTooShortText
			out = append(out, b)
			continue
		}
		if _, bad := r.denylist[b.Text]; bad {
			b.Drop = DropHallucination
			out = append(out, b)
			continue
		}

		// Head trim: a long first word means the segment start bleeds into
		// the previous utterance.
		if len(seg.Words) > 0 {
			first := seg.Words[0].Duration()
			if first >= th.LongFirstWord {
				b.Start += th.HeadTrim
				if first >= th.SilenceFloor {
					// Anything past a second is mis-attributed silence.
					// HeadTrim plus this still leaves SilenceFloor-HeadTrim
					// of the flagged word intact.
					b.Start += first - th.SilenceFloor
				}
			}
		}

		// Tail extend: judged from the NEXT segment's first word, which
		// absorbs this segment's final vowel when overlong.
		if i+1 < len(segments) {
			next := segments[i+1]
			if len(next.Words) > 0 {
				first := next.Words[0].Duration()
				if first >= th.LongFirstWord {
					b.End += th.TailExtend
					if first >= th.SilenceFloor {
						b.End += min(first-th.SilenceFloor, th.TailExtendCap)
					}
				}
			}

			// Gap fill: chase a recognizer timing gap so trailing speech
			// sounds are not truncated, capped to avoid long silences.
			if b.End < next.Start {
				b.End = min(next.Start, b.End+th.GapFillCap)
			}
		} else {
			// Final segment claims the rest of the recording.
			b.End = totalDuration
		}

		// Timing rejects run last: the adjustments above change duration.
		switch {
		case b.Start == b.End:
			b.Drop = DropZeroLength
		case b.End-b.Start < th.MinDuration:
			b.Drop = DropTooShortAudio
		default:
			b.Keep = true
		}
		out = append(out, b)
	}
	return out
}
