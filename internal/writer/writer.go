// Package writer persists run artifacts as pretty-printed JSON files.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joaobzao/capas-harvester/internal/domain"
	"github.com/joaobzao/capas-harvester/internal/logger"
)

// Artifact file names inside the output directory.
const (
	CapasFile   = "capas.json"
	DigestFile  = "digest.json"
	FiltersFile = "filters.json"
)

// Artifacts lists the files written by one run. Empty paths were skipped.
type Artifacts struct {
	Capas   string `json:"capas"`
	Digest  string `json:"digest,omitempty"`
	Filters string `json:"filters,omitempty"`
}

// Paths returns the written file paths in write order.
func (a Artifacts) Paths() []string {
	out := []string{a.Capas}
	if a.Digest != "" {
		out = append(out, a.Digest)
	}
	if a.Filters != "" {
		out = append(out, a.Filters)
	}
	return out
}

// Writer writes artifacts into a single directory.
type Writer struct {
	dir string
	log logger.Logger
}

func New(dir string, log logger.Logger) *Writer {
	return &Writer{dir: dir, log: logger.Ensure(log)}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write creates the output directory and writes capas.json. digest.json and
// filters.json are written only when they have content; a previous file of
// the same name is left untouched otherwise.
func (w *Writer) Write(sections *domain.Sections, digest []domain.DigestEntry, filters []string) (Artifacts, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create output dir %s: %w", w.dir, err)
	}
	if sections == nil {
		sections = domain.NewSections()
	}

	var out Artifacts
	var err error
	if out.Capas, err = w.writeJSON(CapasFile, sections); err != nil {
		return Artifacts{}, err
	}
	if len(digest) > 0 {
		if out.Digest, err = w.writeJSON(DigestFile, digest); err != nil {
			return Artifacts{}, err
		}
	}
	if len(filters) > 0 {
		if out.Filters, err = w.writeJSON(FiltersFile, filters); err != nil {
			return Artifacts{}, err
		}
	}
	return out, nil
}

func (w *Writer) writeJSON(name string, v any) (string, error) {
	path := filepath.Join(w.dir, name)
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	w.log.InfoObj("artifact written", "artifact_written", map[string]any{
		"path":  path,
		"bytes": len(b),
	})
	return path, nil
}
