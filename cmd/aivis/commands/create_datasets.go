package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsukumijima/Aivis/pkg/dataset"
	"github.com/tsukumijima/Aivis/pkg/pipeline"
	"github.com/tsukumijima/Aivis/pkg/slicer"
	"github.com/tsukumijima/Aivis/pkg/statestore"
)

var acceptAll bool

var createDatasetsCmd = &cobra.Command{
	Use:   "create-datasets <segments-pattern> <speaker>",
	Short: "Assemble utterance clips into a per-speaker dataset",
	Long: `Collects every clip under 03-Segments matching the pattern
(e.g. "ep01" or "*") and appends it to the named speaker's dataset under
04-Datasets: clips are copied under the next sequence number and their
transcripts appended to the speaker's manifest.

Every assignment is recorded in a ledger, so an interrupted run resumes
where it stopped and already-assigned clips are never appended twice.

Clips are assigned in bulk, which suits recordings with exactly one
narrator; --accept-all confirms that every matched clip belongs to the
named speaker.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !acceptAll {
			return errors.New("clip-by-clip review is not supported; pass --accept-all to assign every matched clip to the named speaker")
		}
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		layout := pipeline.DefaultLayout(cfg.WorkDir)

		ledger, err := statestore.OpenBadger(statestore.BadgerOptions{
			Dir: filepath.Join(cfg.WorkDir, ".aivis-state"),
		})
		if err != nil {
			return err
		}
		defer ledger.Close()

		r := &datasetsRunner{
			layout:  layout,
			ledger:  ledger,
			acc:     dataset.NewAccumulator(layout.DatasetsDir, cfg.Locale),
			pattern: args[0],
			speaker: args[1],
			out:     cmd.OutOrStdout(),
			log:     logrus.WithField("cmd", "create-datasets"),
		}
		return r.Run(cmd.Context())
	},
}

func init() {
	createDatasetsCmd.Flags().BoolVar(&acceptAll, "accept-all", false,
		"assign every matched clip to the single named speaker")
	rootCmd.AddCommand(createDatasetsCmd)
}

var (
	clipStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	summaryStyle = lipgloss.NewStyle().Faint(true)
)

// datasetsRunner assigns clips to the speaker dataset. Output is injected
// so tests can inspect a whole run.
type datasetsRunner struct {
	layout  pipeline.Layout
	ledger  statestore.Ledger
	acc     *dataset.Accumulator
	pattern string
	speaker string
	out     io.Writer
	log     *logrus.Entry
}

func (r *datasetsRunner) Run(ctx context.Context) error {
	clips, err := filepath.Glob(filepath.Join(r.layout.SegmentsDir, r.pattern, "*.wav"))
	if err != nil {
		return fmt.Errorf("bad segments pattern %q: %w", r.pattern, err)
	}
	if len(clips) == 0 {
		return fmt.Errorf("pattern %q matched no clips under %s", r.pattern, r.layout.SegmentsDir)
	}
	sort.Strings(clips)

	var added, skipped int
	for _, clipPath := range clips {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := r.assignClip(ctx, clipPath)
		if err != nil {
			return err
		}
		if ok {
			added++
		} else {
			skipped++
		}
	}
	r.log.WithFields(logrus.Fields{"added": added, "skipped": skipped}).Info("dataset assignment complete")
	fmt.Fprintln(r.out, summaryStyle.Render(
		fmt.Sprintf("%d clips added to %s, %d already assigned", added, r.speaker, skipped)))
	return nil
}

// assignClip appends one clip unless the ledger already has it. It
// reports whether the clip was newly added.
func (r *datasetsRunner) assignClip(ctx context.Context, clipPath string) (bool, error) {
	source := filepath.Base(filepath.Dir(clipPath))
	clip := filepath.Base(clipPath)

	if _, err := r.ledger.Lookup(ctx, source, clip); err == nil {
		r.log.WithFields(logrus.Fields{"source": source, "clip": clip}).Debug("clip already assigned")
		return false, nil
	} else if !errors.Is(err, statestore.ErrNotFound) {
		return false, err
	}

	transcript, err := clipTranscript(clipPath)
	if err != nil {
		return false, err
	}

	written, err := r.acc.Accept(r.speaker, clipPath, transcript)
	if err != nil {
		return false, err
	}
	if err := r.ledger.Record(ctx, statestore.Decision{
		Source:     source,
		Clip:       clip,
		Accepted:   true,
		Speaker:    r.speaker,
		Transcript: transcript,
	}); err != nil {
		return false, err
	}

	fmt.Fprintf(r.out, "%s %s\n",
		clipStyle.Render(source+"/"+clip+" -> "+filepath.Base(written)),
		textStyle.Render(transcript))
	return true, nil
}

// clipTranscript recovers a clip's transcript: the sidecar when one
// exists (transcripts too long for the filename), otherwise the filename.
func clipTranscript(clipPath string) (string, error) {
	data, err := os.ReadFile(slicer.SidecarPath(clipPath))
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading transcript sidecar: %w", err)
	}
	return slicer.TranscriptFromName(filepath.Base(clipPath)), nil
}
