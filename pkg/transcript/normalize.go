package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// Rules configures the normalizer. The zero value is not usable; call
// DefaultRules for the tuned Japanese defaults.
type Rules struct {
	// Halfwidth maps half-width sentence punctuation to its full-width
	// equivalent. Applied only to Japanese-script text.
	Halfwidth map[rune]rune

	// TerminalJA and TerminalEN are the recognized sentence-ending marks.
	// When a normalized string ends with none of them, the first mark of
	// the matching set is appended.
	TerminalJA []rune
	TerminalEN []rune

	// Brackets lists delimiter pairs whose enclosed content is removed
	// entirely, shortest match first.
	Brackets [][2]rune
}

// DefaultRules returns the rule table used for Japanese narration datasets.
func DefaultRules() Rules {
	return Rules{
		Halfwidth: map[rune]rune{
			'､': '、',
			'｡': '。',
			'!': '！',
			'?': '？',
		},
		TerminalJA: []rune{'。', '、', '！', '？'},
		TerminalEN: []rune{'.', '!', '?'},
		Brackets: [][2]rune{
			{'（', '）'},
			{'【', '】'},
			{'「', '」'},
		},
	}
}

// Normalizer cleans raw recognized utterance strings into dataset-ready
// text. It is a pure function of its rule table: no I/O, deterministic,
// and idempotent (Normalize(Normalize(s)) == Normalize(s)).
type Normalizer struct {
	rules    Rules
	brackets []*regexp.Regexp
}

// NewNormalizer builds a normalizer from the given rule table.
func NewNormalizer(rules Rules) *Normalizer {
	n := &Normalizer{rules: rules}
	for _, pair := range rules.Brackets {
		n.brackets = append(n.brackets,
			regexp.MustCompile(regexp.QuoteMeta(string(pair[0]))+`.*?`+regexp.QuoteMeta(string(pair[1]))))
	}
	return n
}

// Normalize cleans one raw recognized string.
//
// Recognition output is inconsistent about punctuation (the same utterance
// may or may not come back with sentence-ending marks), so the dataset text
// is canonicalized here: full-width punctuation for Japanese, a guaranteed
// terminal mark, no bracketed asides, and no stuttered character runs.
func (n *Normalizer) Normalize(text string) string {
	text = strings.TrimSpace(text)

	// Treat the text as Japanese when it contains any Hiragana, Katakana, or
	// Kanji. Full-width punctuation counts too: normalizer output for
	// bracket-only input can be just "。", which must re-enter this branch
	// to keep the function idempotent.
	japanese := n.isJapanese(text)

	if japanese {
		text = strings.Map(func(r rune) rune {
			if full, ok := n.rules.Halfwidth[r]; ok {
				return full
			}
			return r
		}, text)
		for _, mark := range n.rules.TerminalJA {
			text = strings.ReplaceAll(text, string(mark)+" ", string(mark))
		}
	}

	terminal := n.rules.TerminalEN
	fallback := '.'
	if japanese {
		terminal = n.rules.TerminalJA
		fallback = '。'
	}

	// A leading punctuation run carries no content. This runs before the
	// terminal append so punctuation-only input still normalizes to a
	// single terminal mark instead of the empty string.
	text = strings.TrimLeftFunc(text, func(r rune) bool {
		return containsRune(terminal, r) || (!japanese && r == ',')
	})

	// Guarantee a sentence-ending mark.
	if !endsWithAny(text, terminal) {
		text += string(fallback)
	}

	// Collapse runs of 4+ identical characters (e.g. ～～～～～～！！) to 2.
	text = collapseRuns(text, 4, 2, nil)

	if japanese {
		text = strings.Map(func(r rune) rune {
			if r == ' ' || r == '　' {
				return '、'
			}
			return r
		}, text)
	}

	for _, re := range n.brackets {
		text = re.ReplaceAllString(text, "")
	}

	text = strings.TrimSpace(text)

	// Collapse repeated punctuation down to a single mark.
	punct := append([]rune{}, terminal...)
	if !japanese {
		punct = append(punct, ',')
	}
	text = collapseRuns(text, 2, 1, punct)

	return text
}

func (n *Normalizer) isJapanese(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
		if containsRune(n.rules.TerminalJA, r) {
			return true
		}
	}
	return false
}

// collapseRuns shortens any run of minRun+ identical runes to keep runes.
// When set is non-nil only runes in set are collapsed. RE2 has no
// backreferences, so this is done with a rune scan instead of a regexp.
func collapseRuns(text string, minRun, keep int, set []rune) string {
	runes := []rune(text)
	var out []rune
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		run := j - i
		if run >= minRun && (set == nil || containsRune(set, runes[i])) {
			run = keep
		}
		for k := 0; k < run; k++ {
			out = append(out, runes[i])
		}
		i = j
	}
	return string(out)
}

func endsWithAny(text string, set []rune) bool {
	runes := []rune(text)
	if len(runes) == 0 {
		return false
	}
	return containsRune(set, runes[len(runes)-1])
}

func containsRune(set []rune, r rune) bool {
	for _, s := range set {
		if s == r {
			return true
		}
	}
	return false
}
