package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/app"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/config"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/scraper"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/wiki"
)

func main() {
	cfgPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if dir := filepath.Dir(cfg.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	sink, closer, err := app.BuildSink(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closer()

	client := wiki.NewClient(cfg, &http.Client{})
	svc := scraper.NewService(cfg, client, sink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("scraping %s (delay %s)", cfg.BaseURL, cfg.Delay)
	if err := svc.RunOnce(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("scrape interrupted; partial data may be saved in %s.tmp", cfg.OutputFile)
			return
		}
		log.Fatal(err)
	}
}

func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default()
	}
	return config.Load(path)
}
