package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rollforge/sheetscan/internal/config"
	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/parser"
	"github.com/rollforge/sheetscan/internal/schema"
)

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(nil, []string{".txt"}, true, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}

	var parsed []string
	var mu sync.Mutex
	onSheet := func(path string) {
		mu.Lock()
		parsed = append(parsed, path)
		mu.Unlock()
	}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, onSheet, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "f.txt")
	if err := writeFile(fPath, "Strength 12"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)
	mu.Lock()
	count := len(parsed)
	mu.Unlock()
	if count < 1 {
		t.Errorf("expected at least one sheet callback, got %d", count)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
		// Our own output is never a sheet, whatever the filter says.
		{"/a/b.txt.record.json", nil, false},
		{"/a/b.pdf.record.json", []string{".json"}, false},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles_parsesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.txt"), "Strength 12"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "a.txt.record.json"), "{}"); err != nil {
		t.Fatal(err)
	}

	var parsed []string
	var mu sync.Mutex
	onSheet := func(path string) {
		mu.Lock()
		parsed = append(parsed, path)
		mu.Unlock()
	}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, onSheet, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	w.SyncExistingFiles()

	mu.Lock()
	defer mu.Unlock()
	if len(parsed) != 1 || !strings.HasSuffix(parsed[0], "a.txt") {
		t.Errorf("expected one parsed sheet a.txt, got %v", parsed)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "watch", "me")
	_ = os.RemoveAll(filepath.Join(base, "watch"))

	w := NewWatcher([]string{root}, []string{".txt"}, true, nil, nil)
	// Use Background so we don't cancel; avoid race with run() reading w.watcher after Stop() nils it.
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_HandleNewDirectory_parsesFilesInNewFolder(t *testing.T) {
	dir := t.TempDir()

	var parsed []string
	var mu sync.Mutex
	onSheet := func(path string) {
		mu.Lock()
		parsed = append(parsed, path)
		mu.Unlock()
	}

	w := NewWatcher([]string{dir}, []string{".txt", ".pdf"}, true, onSheet, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Simulate copying a folder with sheets into the watched directory
	newFolder := filepath.Join(dir, "new-folder")
	if err := mkdirAll(newFolder); err != nil {
		t.Fatal(err)
	}

	if err := writeFile(filepath.Join(newFolder, "sheet1.txt"), "Strength 12"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(newFolder, "sheet2.pdf"), "%PDF-"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(newFolder, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(800 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(parsed) < 2 {
		t.Errorf("expected at least 2 parsed sheets, got %d: %v", len(parsed), parsed)
	}
	txtFound, pdfFound := false, false
	for _, p := range parsed {
		if strings.HasSuffix(p, "sheet1.txt") {
			txtFound = true
		}
		if strings.HasSuffix(p, "sheet2.pdf") {
			pdfFound = true
		}
		if strings.HasSuffix(p, "ignore.xyz") {
			t.Errorf("ignore.xyz should not be parsed")
		}
	}
	if !txtFound || !pdfFound {
		t.Errorf("expected sheet1.txt and sheet2.pdf to be parsed, got %v", parsed)
	}
}

func TestWatcher_HandleNewDirectory_recursiveSubfolders(t *testing.T) {
	dir := t.TempDir()

	var parsed []string
	var mu sync.Mutex
	onSheet := func(path string) {
		mu.Lock()
		parsed = append(parsed, path)
		mu.Unlock()
	}

	w := NewWatcher([]string{dir}, []string{".txt"}, true, onSheet, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "level1", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.txt"), "Strength 12"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(800 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	found := false
	for _, p := range parsed {
		if strings.HasSuffix(p, "deep.txt") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected deep.txt to be parsed, got %v", parsed)
	}
}

func TestProcessor_WritesRecordSidecar(t *testing.T) {
	reg, err := schema.Load()
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	cfg := config.Default()
	engine := parser.NewEngine(&cfg.Parser, reg, parser.WithRecognizer(nil))
	p := NewProcessor(engine, zap.NewNop())

	dir := t.TempDir()
	sheet := filepath.Join(dir, "mira.txt")
	if err := writeFile(sheet, "Race: Elf\nClass: Wizard\nLevel: 5"); err != nil {
		t.Fatal(err)
	}

	p.ProcessSheet(context.Background(), sheet)

	data, err := os.ReadFile(RecordPath(sheet))
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
	var record models.CharacterRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("sidecar is not a record: %v", err)
	}
	if record.Value("class") != "wizard" {
		t.Fatalf("class = %q, want wizard", record.Value("class"))
	}

	p.RemoveRecord(sheet)
	if _, err := os.Stat(RecordPath(sheet)); !os.IsNotExist(err) {
		t.Fatalf("sidecar should be removed, stat err = %v", err)
	}
}

func TestProcessor_UnreadableSheetDoesNotWriteSidecar(t *testing.T) {
	reg, err := schema.Load()
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	cfg := config.Default()
	engine := parser.NewEngine(&cfg.Parser, reg, parser.WithRecognizer(nil))
	p := NewProcessor(engine, zap.NewNop())

	dir := t.TempDir()
	sheet := filepath.Join(dir, "broken.pdf")
	if err := writeFile(sheet, "%PDF-1.4 garbage"); err != nil {
		t.Fatal(err)
	}

	p.ProcessSheet(context.Background(), sheet)

	if _, err := os.Stat(RecordPath(sheet)); !os.IsNotExist(err) {
		t.Fatalf("no sidecar expected for unreadable sheet, stat err = %v", err)
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
