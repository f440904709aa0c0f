package export_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seonjhang/gAIm-Systems/internal/export"
	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// seedArtifacts writes two speech artifacts and one transcript artifact
// under dataDir's standard layout.
func seedArtifacts(t *testing.T, dataDir string) {
	t.Helper()

	speech := jsonfile.NewSpeechStore(filepath.Join(dataDir, "raw", "player_speech"))
	for _, doc := range []*types.SpeechDocument{
		{
			PlayerName: "Connor McDavid",
			VideoID:    "vid1",
			Text:       "I thought we played\na solid   road game",
		},
		{
			PlayerName: "Leon Draisaitl",
			VideoID:    "vid2",
			Text:       "it was a team effort",
		},
	} {
		if _, err := speech.Save(doc); err != nil {
			t.Fatalf("save speech: %v", err)
		}
	}

	transcripts := jsonfile.New(filepath.Join(dataDir, "raw", "transcript"))
	if _, err := transcripts.Save(&types.TranscriptDocument{
		VideoID:  "vid1",
		Title:    "Post-game",
		FullText: "What did you think?\nI thought we played well",
	}); err != nil {
		t.Fatalf("save transcript: %v", err)
	}
}

func TestWriteTSV_Speech(t *testing.T) {
	dataDir := t.TempDir()
	seedArtifacts(t, dataDir)

	var buf bytes.Buffer
	n, err := export.New(dataDir).WriteTSV(context.Background(), &buf, export.SpeechSource)
	if err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	if n != 2 {
		t.Errorf("rows: want 2, got %d", n)
	}

	want := "player_name\ttext\n" +
		"Connor McDavid\tI thought we played a solid road game\n" +
		"Leon Draisaitl\tit was a team effort\n"
	if got := buf.String(); got != want {
		t.Errorf("output:\ngot  %q\nwant %q", got, want)
	}
}

func TestWriteTSV_Transcript(t *testing.T) {
	dataDir := t.TempDir()
	seedArtifacts(t, dataDir)

	var buf bytes.Buffer
	n, err := export.New(dataDir).WriteTSV(context.Background(), &buf, export.TranscriptSource)
	if err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	if n != 1 {
		t.Errorf("rows: want 1, got %d", n)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: want 2, got %d", len(lines))
	}
	if lines[1] != "UNKNOWN\tWhat did you think? I thought we played well" {
		t.Errorf("row: got %q", lines[1])
	}
}

func TestWriteTSV_UnknownSource(t *testing.T) {
	var buf bytes.Buffer
	_, err := export.New(t.TempDir()).WriteTSV(context.Background(), &buf, export.DataSource("csv"))
	if err == nil {
		t.Fatal("want error for unknown source, got nil")
	}
	if !strings.Contains(err.Error(), "csv") {
		t.Errorf("error: got %v", err)
	}
}

func TestWriteTSV_MissingArtifactDir(t *testing.T) {
	// No artifacts were ever collected into this data dir.
	var buf bytes.Buffer
	_, err := export.New(t.TempDir()).WriteTSV(context.Background(), &buf, export.SpeechSource)
	if err == nil {
		t.Fatal("want error for missing artifact dir, got nil")
	}
}

func TestExportFile(t *testing.T) {
	dataDir := t.TempDir()
	seedArtifacts(t, dataDir)

	path := filepath.Join(dataDir, "processed", "dataset.tsv")
	n, err := export.New(dataDir).ExportFile(context.Background(), path, export.SpeechSource)
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	if n != 2 {
		t.Errorf("rows: want 2, got %d", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "player_name\ttext\n") {
		t.Errorf("header missing: %q", string(data))
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Errorf("line count: want 3, got %d", got)
	}
}
