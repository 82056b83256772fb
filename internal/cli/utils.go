// Package cli provides CLI output helpers for sheetscan.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rollforge/sheetscan/internal/models"
)

// RecordOutputFormat is the format for record output.
type RecordOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText RecordOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON RecordOutputFormat = "json"
	// OutputCompact is one resolved field per line.
	OutputCompact RecordOutputFormat = "compact"
)

// WriteRecord writes a character record to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteRecord(w io.Writer, record *models.CharacterRecord, format RecordOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	case OutputCompact:
		writeRecordCompact(w, record)
		return nil
	default:
		writeRecordText(w, record)
		return nil
	}
}

func writeRecordText(w io.Writer, record *models.CharacterRecord) {
	resolved := len(record.Fields) - len(record.Unresolved)
	fmt.Fprintf(w, "\nResolved %d of %d fields (overall confidence %.2f)\n",
		resolved, len(record.Fields), record.OverallConfidence)
	if len(record.Strategies) > 0 {
		fmt.Fprintf(w, "Strategies: %s\n", strings.Join(record.Strategies, ", "))
	}
	fmt.Fprintln(w)
	for _, f := range record.Fields {
		if !f.Resolved {
			continue
		}
		suffix := ""
		if f.OCR {
			suffix = " (ocr)"
		}
		// Free-text values can run long; keep the table readable.
		fmt.Fprintf(w, "  %-14s %-24s %.2f  %s%s\n", f.FieldID, TruncateWords(f.Value, 4), f.Confidence, f.Strategy, suffix)
	}
	if len(record.Unresolved) > 0 {
		fmt.Fprintf(w, "\nUnresolved: %s\n", strings.Join(record.Unresolved, ", "))
	}
	fmt.Fprintf(w, "\nSource: %s\n", Truncate(record.SourceHash, 16))
}

func writeRecordCompact(w io.Writer, record *models.CharacterRecord) {
	for _, f := range record.Fields {
		if !f.Resolved {
			continue
		}
		fmt.Fprintf(w, "%s=%s\n", f.FieldID, f.Value)
	}
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
