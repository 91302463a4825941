// Package docs converts scraped article records into per-article text
// documents for bulk ingestion into a knowledge base.
package docs

import (
	"archive/tar"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/article"
)

const (
	// InstructionsFile is written alongside the exported documents.
	InstructionsFile = "UPLOAD_INSTRUCTIONS.txt"

	maxFilenameLen = 200
)

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a wiki page title into a safe filename: illegal
// filesystem characters become underscores, whitespace runs collapse to a
// single underscore, leading and trailing dots and underscores are trimmed,
// and the result is capped at 200 characters. Distinct titles may collapse
// to the same filename; the last write wins.
func SanitizeFilename(title string) string {
	name := illegalChars.ReplaceAllString(title, "_")
	name = whitespace.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if runes := []rune(name); len(runes) > maxFilenameLen {
		name = string(runes[:maxFilenameLen])
	}
	return name
}

// Export writes one text document per record into dir, overwriting existing
// files of the same name. Records with empty trimmed content are counted as
// skipped, as are records whose file cannot be written; a per-record
// failure never aborts the batch.
func Export(records []article.Record, dir string) (converted, skipped int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, err
	}
	for _, rec := range records {
		if strings.TrimSpace(rec.Content) == "" {
			skipped++
			continue
		}
		name := SanitizeFilename(rec.Title) + ".txt"
		body := fmt.Sprintf("TITLE: %s\nURL: %s\nWORD COUNT: %d\n\nCONTENT:\n%s\n",
			rec.Title, rec.URL, rec.WordCount, rec.Content)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			log.Printf("write %s: %v", name, err)
			skipped++
			continue
		}
		converted++
	}
	return converted, skipped, nil
}

// WriteInstructions emits a human-readable upload guide into dir, including
// the exported document count and aggregate size.
func WriteInstructions(dir string) error {
	files, totalBytes, err := listDocuments(dir)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}
	content := fmt.Sprintf(instructionsTemplate,
		len(files), absDir, float64(totalBytes)/1024/1024, dir)
	return os.WriteFile(filepath.Join(dir, InstructionsFile), []byte(content), 0o644)
}

// WriteBundle packs every exported document in dir into a gzipped tarball
// at path, for the bulk-upload path of the knowledge base.
func WriteBundle(dir, path string) error {
	files, _, err := listDocuments(dir)
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, name := range files {
		if err := addToBundle(tw, dir, name); err != nil {
			tw.Close()
			gz.Close()
			out.Close()
			os.Remove(path)
			return fmt.Errorf("bundle %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		gz.Close()
		out.Close()
		os.Remove(path)
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

func addToBundle(tw *tar.Writer, dir, name string) error {
	full := filepath.Join(dir, name)
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	file, err := os.Open(full)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(tw, file)
	return err
}

// listDocuments returns the exported .txt files in dir, excluding the
// instructions file, with their aggregate size.
func listDocuments(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	var files []string
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		if entry.Name() == InstructionsFile {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, entry.Name())
		total += info.Size()
	}
	return files, total, nil
}

const instructionsTemplate = `OPEN WEBUI UPLOAD INSTRUCTIONS
====================================

Generated documents: %d files
Location: %s
Total size: %.1f MB

UPLOAD METHODS:

Method 1: Web Interface (Recommended for smaller batches)
1. Open Open WebUI in browser (http://localhost:3000)
2. Go to Admin Panel -> Knowledge Base
3. Create new collection: "League NS Wiki"
4. Upload documents in batches (select multiple .txt files)
5. Process and index

Method 2: Bulk Upload (For all files)
1. Bundle all documents: wikiconvert -bundle wiki_docs.tar.gz
2. Use Open WebUI's bulk import feature
3. Or use API if available

Method 3: API Upload (Advanced)
Use the Open WebUI API to programmatically upload all documents from %s.

SYSTEM PROMPT RECOMMENDATION:
============================
Set this as your system prompt in Open WebUI:

"You are a search assistant for the League NS roleplay wiki. You must ONLY
answer questions using information from the provided wiki context about the
fictional countries and world in this roleplay setting.

CRITICAL RULES:
- If the wiki context doesn't contain the answer, say 'I don't have that
  information in the wiki'
- Never use your general knowledge about the real world
- Never mention real countries, real wars, or real events unless they
  appear in the wiki
- All answers must be sourced from the League NS wiki content provided to
  you
- When asked about wars, countries, leaders, etc., only reference those
  mentioned in the wiki context

Remember: You are answering about a fictional roleplay world, not the real
world."
`
