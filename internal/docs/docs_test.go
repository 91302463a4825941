package docs

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/article"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"My/Page:Name?":         "My_Page_Name",
		"Test Page":             "Test_Page",
		`A<b>c:"d"/e\f|g?h*i`:   "A_b_c__d__e_f_g_h_i",
		"  spaced   out  title": "spaced_out_title",
		"...Dotted.Name...":     "Dotted.Name",
		"__trimmed__":           "trimmed",
		"Plain":                 "Plain",
	}
	for title, want := range cases {
		assert.Equal(t, want, SanitizeFilename(title), "title %q", title)
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := SanitizeFilename(long)
	assert.Len(t, got, 200)

	multibyte := SanitizeFilename(strings.Repeat("€", 300))
	assert.True(t, utf8.ValidString(multibyte), "truncation must not split a rune")
	assert.Equal(t, 200, utf8.RuneCountInString(multibyte))
}

func TestSanitizeFilenameDeterministic(t *testing.T) {
	title := "War: The/Sequel?"
	assert.Equal(t, SanitizeFilename(title), SanitizeFilename(title))
}

func TestExportScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	records := []article.Record{
		{
			Title:     "Test Page",
			URL:       "https://wiki.example/wiki/Test_Page",
			Content:   "Hello world",
			WordCount: 2,
		},
	}

	converted, skipped, err := Export(records, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, converted)
	assert.Equal(t, 0, skipped)

	data, err := os.ReadFile(filepath.Join(dir, "Test_Page.txt"))
	require.NoError(t, err)
	want := "TITLE: Test Page\n" +
		"URL: https://wiki.example/wiki/Test_Page\n" +
		"WORD COUNT: 2\n" +
		"\n" +
		"CONTENT:\n" +
		"Hello world\n"
	assert.Equal(t, want, string(data))
}

func TestExportSkipsEmptyContent(t *testing.T) {
	dir := t.TempDir()
	records := []article.Record{
		{Title: "Has Content", Content: "body", WordCount: 1},
		{Title: "Empty"},
		{Title: "Whitespace", Content: "  \n\t "},
	}

	converted, skipped, err := Export(records, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, converted)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, len(records), converted+skipped)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Has_Content.txt", entries[0].Name())
}

func TestExportIdempotent(t *testing.T) {
	dir := t.TempDir()
	records := []article.Record{
		{Title: "Stable Page", URL: "u", Content: "same text", WordCount: 2},
	}

	_, _, err := Export(records, dir)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "Stable_Page.txt"))
	require.NoError(t, err)

	_, _, err = Export(records, dir)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "Stable_Page.txt"))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "second export must overwrite, not duplicate")
}

func TestWriteInstructions(t *testing.T) {
	dir := t.TempDir()
	records := []article.Record{
		{Title: "One", Content: "alpha", WordCount: 1},
		{Title: "Two", Content: "beta gamma", WordCount: 2},
	}
	_, _, err := Export(records, dir)
	require.NoError(t, err)

	require.NoError(t, WriteInstructions(dir))

	data, err := os.ReadFile(filepath.Join(dir, InstructionsFile))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Generated documents: 2 files")
	assert.Contains(t, text, "SYSTEM PROMPT RECOMMENDATION")

	// a rerun must not count its own instructions file
	require.NoError(t, WriteInstructions(dir))
	data, err = os.ReadFile(filepath.Join(dir, InstructionsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Generated documents: 2 files")
}

func TestWriteBundle(t *testing.T) {
	dir := t.TempDir()
	records := []article.Record{
		{Title: "One", Content: "alpha", WordCount: 1},
		{Title: "Two", Content: "beta", WordCount: 1},
	}
	_, _, err := Export(records, dir)
	require.NoError(t, err)
	require.NoError(t, WriteInstructions(dir))

	bundle := filepath.Join(t.TempDir(), "docs.tar.gz")
	require.NoError(t, WriteBundle(dir, bundle))

	file, err := os.Open(bundle)
	require.NoError(t, err)
	defer file.Close()
	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	defer gz.Close()

	names := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		names[hdr.Name] = string(content)
	}

	assert.Len(t, names, 2)
	assert.Contains(t, names["One.txt"], "CONTENT:\nalpha")
	assert.Contains(t, names["Two.txt"], "CONTENT:\nbeta")
	assert.NotContains(t, names, InstructionsFile)
}
