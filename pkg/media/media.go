// Package media discovers input recordings and probes their properties
// through ffprobe.
package media

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// sourceExts are the container formats accepted as pipeline input. Video
// containers are included because narration tracks often arrive inside
// screen or broadcast recordings.
var sourceExts = map[string]bool{
	".wav": true, ".flac": true, ".opus": true, ".ogg": true, ".vorbis": true,
	".mp3": true, ".m4a": true,
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".wmv": true,
	".ts": true, ".mts": true, ".m2ts": true, ".mpg": true, ".mpeg": true,
}

// Source is one discovered input file.
type Source struct {
	// Path is the absolute or root-relative location of the file.
	Path string
	// Stem is the filename without its extension, used as the pipeline
	// key for every derived artifact.
	Stem string
}

// IsSource reports whether path has a recognized media extension.
func IsSource(path string) bool {
	return sourceExts[strings.ToLower(filepath.Ext(path))]
}

// ScanSources walks root recursively and returns every media file in
// lexical path order, so repeated runs process sources in a stable order.
func ScanSources(root string) ([]Source, error) {
	var out []Source
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsSource(path) {
			return nil
		}
		name := d.Name()
		out = append(out, Source{
			Path: path,
			Stem: strings.TrimSuffix(name, filepath.Ext(name)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
