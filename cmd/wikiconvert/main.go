package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/article"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/config"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/docs"
)

func main() {
	cfgPath := flag.String("config", "config.yml", "path to config file")
	input := flag.String("input", "", "scraped JSON file (defaults to the configured output_file)")
	bundle := flag.String("bundle", "", "optional path for a tar.gz bundle of the exported documents")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	source := *input
	if source == "" {
		source = cfg.OutputFile
	}

	records, err := article.Load(source)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("converting %d articles from %s", len(records), source)

	converted, skipped, err := docs.Export(records, cfg.DocsDir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("converted %d documents, skipped %d", converted, skipped)

	if err := docs.WriteInstructions(cfg.DocsDir); err != nil {
		log.Fatal(err)
	}
	if *bundle != "" {
		if err := docs.WriteBundle(cfg.DocsDir, *bundle); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote bundle %s", *bundle)
	}
	log.Printf("documents saved to %s", cfg.DocsDir)
}

func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default()
	}
	return config.Load(path)
}
