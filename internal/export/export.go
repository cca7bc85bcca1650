// Package export writes JSON artifacts. Every write replaces the file
// wholesale; a reader never sees a half-written artifact.
package export

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"mspro-labs/grid-scout/internal/models"
)

var logger = log.New(os.Stdout, "EXPORT: ", log.LstdFlags|log.Lshortfile)

// Indents used by the artifacts.
const (
	IndentData   = " "    // state, census and region files
	IndentSheets = "    " // converted spreadsheets
)

// WriteJSON encodes v into path, creating parent directories as needed.
func WriteJSON(path string, v any, indent string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	logger.Printf("Wrote %s", path)
	return nil
}

// ReadJSON decodes the file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// StateWriter returns a save callback that writes each state's providers to
// dir.
func StateWriter(dir string) func(*models.StateProviders) error {
	return func(sp *models.StateProviders) error {
		return WriteJSON(StatePath(dir, sp.State), sp, IndentData)
	}
}

// StatePath is where a state's provider artifact lives.
func StatePath(dir, abbr string) string {
	return filepath.Join(dir, models.StateFileName(abbr))
}
