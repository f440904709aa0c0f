// Package export converts saved artifacts into structured TSV datasets.
//
// It only transforms existing raw data; collection lives in
// [github.com/seonjhang/gAIm-Systems/internal/collect]. The output format is
// one "player_name<TAB>text" row per document with the text flattened to a
// single whitespace-normalized line.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
)

// DataSource selects which artifacts feed the dataset.
type DataSource string

const (
	// SpeechSource exports attributed player speech, one row per speech
	// artifact.
	SpeechSource DataSource = "speech"

	// TranscriptSource exports unfiltered transcripts. Transcript artifacts
	// carry no speaker, so every row's player is [UnknownPlayer].
	TranscriptSource DataSource = "transcript"
)

// UnknownPlayer marks rows whose source artifact names no speaker.
const UnknownPlayer = "UNKNOWN"

// Exporter builds TSV datasets from the artifact directories under a data
// directory.
type Exporter struct {
	speech      *jsonfile.SpeechStore
	transcripts *jsonfile.Source
}

// New returns an Exporter over dataDir's standard artifact layout
// ("raw/player_speech" and "raw/transcript").
func New(dataDir string) *Exporter {
	return &Exporter{
		speech:      jsonfile.NewSpeechStore(filepath.Join(dataDir, "raw", "player_speech")),
		transcripts: jsonfile.New(filepath.Join(dataDir, "raw", "transcript")),
	}
}

type row struct {
	player string
	text   string
}

// WriteTSV writes the dataset for src into w and returns the number of data
// rows written. Rows follow the artifacts' filename order.
func (e *Exporter) WriteTSV(ctx context.Context, w io.Writer, src DataSource) (int, error) {
	ctx, span := observe.StartSpan(ctx, "export.tsv")
	defer span.End()

	var rows []row
	switch src {
	case SpeechSource:
		docs, err := e.speech.Documents(ctx)
		if err != nil {
			return 0, fmt.Errorf("export: %w", err)
		}
		for _, doc := range docs {
			rows = append(rows, row{player: doc.PlayerName, text: doc.Text})
		}
	case TranscriptSource:
		docs, err := e.transcripts.Documents(ctx)
		if err != nil {
			return 0, fmt.Errorf("export: %w", err)
		}
		for _, doc := range docs {
			rows = append(rows, row{player: UnknownPlayer, text: doc.FullText})
		}
	default:
		return 0, fmt.Errorf("export: unknown data source %q", src)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("player_name\ttext\n"); err != nil {
		return 0, fmt.Errorf("export: write header: %w", err)
	}
	for _, r := range rows {
		if _, err := bw.WriteString(singleLine(r.player) + "\t" + singleLine(r.text) + "\n"); err != nil {
			return 0, fmt.Errorf("export: write row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("export: flush: %w", err)
	}

	observe.Logger(ctx).Info("dataset exported", "source", string(src), "rows", len(rows))
	return len(rows), nil
}

// ExportFile writes the dataset for src to path, creating parent directories
// as needed, and returns the number of data rows written.
func (e *Exporter) ExportFile(ctx context.Context, path string, src DataSource) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("export: create dir %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export: create %q: %w", path, err)
	}
	n, err := e.WriteTSV(ctx, f, src)
	if err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("export: close %q: %w", path, err)
	}
	return n, nil
}

// singleLine collapses all whitespace runs, including newlines and tabs,
// into single spaces.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
