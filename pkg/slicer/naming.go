package slicer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxStemRunes keeps clip filenames inside common filesystem name limits
// once the extension and multibyte encoding are accounted for.
const maxStemRunes = 87

var pathUnsafe = strings.NewReplacer(
	`\`, "_", `/`, "_", `:`, "_", `*`, "_",
	`?`, "_", `"`, "_", `<`, "_", `>`, "_", `|`, "_",
)

// ClipName builds the clip filename for the seq-th kept clip of a source:
// a zero-padded sequence number followed by the sanitized transcript. Path
// separators and shell-hostile characters become underscores and overly
// long transcripts are truncated. The second return reports whether the
// transcript was truncated, in which case the full text must be preserved
// in a sidecar.
func ClipName(seq int, text string) (name string, truncated bool) {
	stem, truncated := sanitize(text)
	return fmt.Sprintf("%04d_%s.wav", seq, stem), truncated
}

func sanitize(text string) (stem string, truncated bool) {
	stem = pathUnsafe.Replace(text)
	runes := []rune(stem)
	if len(runes) > maxStemRunes {
		return string(runes[:maxStemRunes]), true
	}
	return stem, false
}

// TranscriptFromName recovers the transcript embedded in a clip filename
// ("0001_こんにちは。.wav" yields "こんにちは。"). Callers should prefer the
// sidecar when one exists, since truncated names lose text.
func TranscriptFromName(clipName string) string {
	stem := strings.TrimSuffix(clipName, filepath.Ext(clipName))
	if _, rest, ok := strings.Cut(stem, "_"); ok {
		return rest
	}
	return stem
}

// SidecarPath is the transcript file that accompanies a clip.
func SidecarPath(clipPath string) string {
	return strings.TrimSuffix(clipPath, filepath.Ext(clipPath)) + ".txt"
}

// WriteSidecar writes the full transcript next to the clip.
func WriteSidecar(clipPath, text string) error {
	path := SidecarPath(clipPath)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
