package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL         string `yaml:"base_url" default:"https://wiki.theleague-ns.com"`
	OutputFile      string `yaml:"output_file" default:"league_wiki_content.json"`
	DocsDir         string `yaml:"docs_dir" default:"wiki_documents"`
	RequestDelay    string `yaml:"request_delay" default:"1.5s"`
	CheckpointEvery int    `yaml:"checkpoint_every" default:"100"`
	PageLimit       int    `yaml:"page_limit" default:"500"`
	UserAgent       string `yaml:"user_agent" default:"MediaWikiScraper/1.0 (Educational/Research Use)"`
	HTTPAddr        string `yaml:"http_addr" default:":8080"`
	Sink            string `yaml:"sink" default:"none"`
	KafkaBroker     string `yaml:"kafka_broker" default:"localhost:9092"`
	KafkaTopic      string `yaml:"kafka_topic" default:"wiki-articles"`

	// Delay is RequestDelay parsed at load time.
	Delay time.Duration `yaml:"-"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("set default config values: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return finish(cfg)
}

// Default returns the configuration with no file applied.
func Default() (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("set default config values: %w", err)
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	delay, err := time.ParseDuration(cfg.RequestDelay)
	if err != nil {
		return Config{}, fmt.Errorf("parse request_delay: %w", err)
	}
	if delay < 0 {
		return Config{}, fmt.Errorf("request_delay must not be negative")
	}
	cfg.Delay = delay
	if cfg.CheckpointEvery <= 0 {
		return Config{}, fmt.Errorf("checkpoint_every must be positive")
	}
	if cfg.PageLimit <= 0 {
		return Config{}, fmt.Errorf("page_limit must be positive")
	}
	switch cfg.Sink {
	case "kafka":
		if cfg.KafkaBroker == "" {
			return Config{}, fmt.Errorf("kafka broker is not configured")
		}
	case "stdout", "none":
		cfg.KafkaBroker = ""
		cfg.KafkaTopic = ""
	default:
		return Config{}, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
	return cfg, nil
}
