package e2e

import (
	"strings"
	"testing"

	"github.com/rollforge/sheetscan/internal/document"
)

func TestMinimalSheet_loadsForEverySupportedExtension(t *testing.T) {
	const text = "Class: Wizard Level: 5"
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			raw, err := MinimalSheet(ext, text)
			if err != nil {
				t.Fatalf("build fixture: %v", err)
			}
			doc, err := document.Load(raw, ext, 1.0)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if doc.PageCount() == 0 {
				t.Fatal("no pages loaded")
			}
			if !strings.Contains(doc.Page(0).Text, "Wizard") {
				t.Fatalf("page text = %q, want it to contain Wizard", doc.Page(0).Text)
			}
		})
	}
}
