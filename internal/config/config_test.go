package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.theleague-ns.com", cfg.BaseURL)
	assert.Equal(t, "league_wiki_content.json", cfg.OutputFile)
	assert.Equal(t, "wiki_documents", cfg.DocsDir)
	assert.Equal(t, 1500*time.Millisecond, cfg.Delay)
	assert.Equal(t, 100, cfg.CheckpointEvery)
	assert.Equal(t, 500, cfg.PageLimit)
	assert.Equal(t, "none", cfg.Sink)
	assert.Empty(t, cfg.KafkaBroker, "broker cleared when sink is not kafka")
	assert.Empty(t, cfg.KafkaTopic)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
base_url: https://wiki.example
request_delay: 250ms
checkpoint_every: 10
sink: kafka
kafka_broker: broker:9092
kafka_topic: articles
`))
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.example", cfg.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.Equal(t, 10, cfg.CheckpointEvery)
	assert.Equal(t, "kafka", cfg.Sink)
	assert.Equal(t, "broker:9092", cfg.KafkaBroker)
	assert.Equal(t, "articles", cfg.KafkaTopic)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "sink: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "unknown sink")

	_, err = Load(writeConfig(t, "request_delay: soon\n"))
	assert.ErrorContains(t, err, "request_delay")

	_, err = Load(writeConfig(t, "checkpoint_every: 0\n"))
	assert.ErrorContains(t, err, "checkpoint_every")

	_, err = Load(writeConfig(t, "page_limit: -5\n"))
	assert.ErrorContains(t, err, "page_limit")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "https://wiki.theleague-ns.com", cfg.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Delay)
}
