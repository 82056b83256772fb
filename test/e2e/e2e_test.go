package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rollforge/sheetscan/internal/config"
	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/parser"
	"github.com/rollforge/sheetscan/internal/schema"
	"github.com/rollforge/sheetscan/internal/watcher"
)

const sheetText = "Character Name: Mira Race: Elf Class: Wizard Level: 5 Strength 8 Dexterity 14"

func newEngine(t *testing.T) *parser.Engine {
	t.Helper()
	reg, err := schema.Load()
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	cfg := config.Default().Parser
	return parser.NewEngine(&cfg, reg, parser.WithRecognizer(nil))
}

func TestE2E_ParseExtractsFieldsFromEveryFormat(t *testing.T) {
	engine := newEngine(t)
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			raw, err := MinimalSheet(ext, sheetText)
			if err != nil {
				t.Fatalf("build fixture: %v", err)
			}
			record, err := engine.Parse(context.Background(), raw, ext, "")
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := record.Value("class"); got != "wizard" {
				t.Errorf("class = %q, want wizard", got)
			}
			if got := record.Value("level"); got != "5" {
				t.Errorf("level = %q, want 5", got)
			}
			if got := record.Value("strength"); got != "8" {
				t.Errorf("strength = %q, want 8", got)
			}
		})
	}
}

func TestE2E_WatchDirectoryWritesRecordSidecar(t *testing.T) {
	engine := newEngine(t)
	processor := watcher.NewProcessor(engine, zap.NewNop())

	dir := t.TempDir()
	w := watcher.NewWatcher(
		[]string{dir},
		[]string{".txt"},
		true,
		func(path string) { processor.ProcessSheet(context.Background(), path) },
		func(path string) { processor.RemoveRecord(path) },
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sheet := filepath.Join(dir, "mira.txt")
	if err := os.WriteFile(sheet, []byte(sheetText), 0600); err != nil {
		t.Fatal(err)
	}

	sidecar := watcher.RecordPath(sheet)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(sidecar); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sidecar was not written before deadline")
		}
		time.Sleep(50 * time.Millisecond)
	}

	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatal(err)
	}
	var record models.CharacterRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("sidecar is not a record: %v", err)
	}
	if record.Value("race") != "Elf" {
		t.Errorf("race = %q, want Elf", record.Value("race"))
	}
}
