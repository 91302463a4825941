// Package article defines the scraped article record and the JSON
// hand-off file shared by the scraper and the document converter.
package article

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Record is one scraped wiki article.
type Record struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
	WordCount  int    `json:"word_count"`
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// PageURL builds the canonical wiki URL for a page title.
func PageURL(baseURL, title string) string {
	return strings.TrimSuffix(baseURL, "/") + "/wiki/" + strings.ReplaceAll(title, " ", "_")
}

// Load reads a JSON array of records. A missing file, invalid JSON, or a
// top-level value that is not an array is an error.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return nil, fmt.Errorf("parse %s: expected a top-level JSON array", path)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// Save writes the records as an indented JSON array. The file is written to
// a temporary sibling and renamed into place, so readers never observe a
// half-written array.
func Save(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".articles-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Checkpoint is the periodic progress snapshot kept beside the output file
// while a scrape is running. It survives an interrupted run as the recovery
// artifact and is cleared after the final output write.
type Checkpoint struct {
	path string
}

func NewCheckpoint(outputFile string) *Checkpoint {
	return &Checkpoint{path: outputFile + ".tmp"}
}

func (c *Checkpoint) Path() string {
	return c.path
}

// Write overwrites the checkpoint with the full accumulated sequence.
func (c *Checkpoint) Write(records []Record) error {
	return Save(c.path, records)
}

// Clear removes the checkpoint; a missing file is not an error.
func (c *Checkpoint) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
