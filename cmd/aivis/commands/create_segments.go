package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsukumijima/Aivis/cmd/aivis/internal/config"
	"github.com/tsukumijima/Aivis/pkg/asr"
	"github.com/tsukumijima/Aivis/pkg/audio/vad"
	"github.com/tsukumijima/Aivis/pkg/media"
	"github.com/tsukumijima/Aivis/pkg/pipeline"
	"github.com/tsukumijima/Aivis/pkg/segmenter"
	"github.com/tsukumijima/Aivis/pkg/separate"
	"github.com/tsukumijima/Aivis/pkg/slicer"
	"github.com/tsukumijima/Aivis/pkg/transcript"
)

var forceTranscribe bool

var createSegmentsCmd = &cobra.Command{
	Use:   "create-segments",
	Short: "Separate, transcribe, and slice every source into utterance clips",
	Long: `Processes every media file under 01-Sources:

  1. Separate the narration voice from music and noise (demucs)
  2. Transcribe the vocal track with word timestamps
  3. Refine utterance boundaries and cut loudness-normalized clips

A source whose output already exists is skipped. One failing source does
not stop the run; its error is logged and the next source is processed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		r, err := newSegmentsRunner(cfg)
		if err != nil {
			return err
		}
		return r.Run(cmd.Context())
	},
}

func init() {
	createSegmentsCmd.Flags().BoolVar(&forceTranscribe, "force-transcribe", false,
		"re-run speech recognition even when a cached transcript exists")
	rootCmd.AddCommand(createSegmentsCmd)
}

// segmentsRunner wires the create-segments stages. Every external tool
// sits behind an interface so tests can run the full flow with fakes.
type segmentsRunner struct {
	layout    pipeline.Layout
	cache     *pipeline.Cache
	separator separate.Separator
	recognize asr.Transcriber
	prober    media.Prober
	slice     *slicer.Slicer
	refiner   *segmenter.Refiner
	search    bool
	log       *logrus.Entry
}

func newSegmentsRunner(cfg *config.Config) (*segmentsRunner, error) {
	layout := pipeline.DefaultLayout(cfg.WorkDir)
	log := logrus.WithField("cmd", "create-segments")

	th := segmenter.DefaultThresholds()
	if cfg.Refine.MinTranscriptRunes > 0 {
		th.MinTranscript = cfg.Refine.MinTranscriptRunes
	}
	if cfg.Refine.MinClipSec > 0 {
		th.MinDuration = cfg.Refine.MinClipSec
	}

	extractor := &slicer.FFmpeg{Bin: cfg.Tools.FFmpeg}
	sl := slicer.New(extractor)
	if cfg.Tools.VADModel != "" {
		sl.Detector = &vad.Silero{ModelPath: cfg.Tools.VADModel}
		extractor.SampleRate = 16000
	}
	sl.Options.TargetLUFS = cfg.Slice.TargetLUFS
	sl.Options.PeakDB = cfg.Slice.PeakDB
	sl.Options.TrimSilence = cfg.Slice.TrimSilence
	sl.Options.MinDuration = th.MinDuration
	sl.Logger = log

	return &segmentsRunner{
		layout: layout,
		cache: &pipeline.Cache{
			Status:          pipeline.ArtifactStatus{Layout: layout},
			ForceTranscribe: forceTranscribe,
		},
		separator: &separate.Demucs{
			Bin:    cfg.Tools.Demucs,
			Model:  cfg.Tools.DemucsModel,
			Device: cfg.Tools.Device,
			Logger: log,
		},
		recognize: &asr.Command{
			Bin:    cfg.Tools.Recognizer.Bin,
			Args:   cfg.Tools.Recognizer.Args,
			Logger: log,
		},
		prober:  &media.FFprobe{Bin: cfg.Tools.FFprobe},
		slice:   sl,
		refiner: segmenter.New(th, transcript.NewNormalizer(transcript.DefaultRules()), cfg.Denylist),
		search:  cfg.Slice.SearchSilence,
		log:     log,
	}, nil
}

// Run processes every discovered source, isolating per-source failures.
func (r *segmentsRunner) Run(ctx context.Context) error {
	for _, dir := range []string{r.layout.SourcesDir, r.layout.PreparedDir, r.layout.SegmentsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	sources, err := media.ScanSources(r.layout.SourcesDir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		r.log.Infof("no sources found under %s", r.layout.SourcesDir)
		return nil
	}

	var failed int
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processSource(ctx, src); err != nil {
			failed++
			r.log.WithField("source", src.Stem).Errorf("skipping source: %v", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(sources))
	}
	return nil
}

func (r *segmentsRunner) processSource(ctx context.Context, src media.Source) error {
	log := r.log.WithField("source", src.Stem)

	voicePath := r.layout.VoicePath(src.Stem)
	if run, err := r.cache.ShouldRun(pipeline.StageSeparation, src.Stem); err != nil {
		return err
	} else if run {
		log.Info("separating voice track")
		if err := r.separator.Separate(ctx, src.Path, voicePath); err != nil {
			return err
		}
	} else {
		log.Debug("separation output present, skipping")
	}

	transcriptPath := r.layout.TranscriptPath(src.Stem)
	var result *transcript.Result
	if run, err := r.cache.ShouldRun(pipeline.StageTranscription, src.Stem); err != nil {
		return err
	} else if run {
		log.Info("transcribing")
		result, err = r.recognize.Transcribe(ctx, voicePath)
		if err != nil {
			return err
		}
		if err := result.Save(transcriptPath); err != nil {
			return err
		}
	} else {
		log.Debug("cached transcript present, skipping recognition")
		var err error
		result, err = transcript.Load(transcriptPath)
		if err != nil {
			return err
		}
	}

	if run, err := r.cache.ShouldRun(pipeline.StageSegmentation, src.Stem); err != nil {
		return err
	} else if !run {
		log.Debug("segments present, skipping")
		return nil
	}
	return r.cutSegments(ctx, src, voicePath, result, log)
}

func (r *segmentsRunner) cutSegments(ctx context.Context, src media.Source, voicePath string, result *transcript.Result, log *logrus.Entry) error {
	total, err := r.prober.Duration(ctx, voicePath)
	if err != nil {
		return err
	}
	boundaries := r.refiner.Refine(result.Segments, total)

	segDir := r.layout.SegmentDir(src.Stem)
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		return err
	}

	var kept, dropped int
	for _, b := range boundaries {
		if !b.Keep {
			dropped++
			log.WithField("segment", b.Index).Debugf("rejected: %s", b.Drop)
			continue
		}
		name, truncated := slicer.ClipName(kept+1, b.Text)
		if truncated {
			log.WithField("segment", b.Index).Warn("transcript truncated in filename, full text in sidecar")
		}
		req := slicer.Request{
			Source:  voicePath,
			Start:   b.Start,
			End:     b.End,
			Text:    b.Text,
			Dest:    filepath.Join(segDir, name),
			Sidecar: truncated,
		}
		if r.search {
			if raw := result.Segments[b.Index].End; raw < b.End {
				req.EndMin = raw
			}
		}
		err := r.slice.Slice(ctx, req)
		var drop *slicer.DropError
		switch {
		case errors.As(err, &drop):
			dropped++
			log.WithField("segment", b.Index).Debugf("rejected: %v", drop)
		case err != nil:
			return err
		default:
			kept++
		}
	}
	log.Infof("cut %d clips (%d rejected)", kept, dropped)
	return nil
}
