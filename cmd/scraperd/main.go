package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/app"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/config"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/scraper"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/wiki"
)

func main() {
	cfgPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
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

	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Start(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/pause", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Pause(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/abort", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Abort(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(svc.Status())
	})
	mux.Handle("/metrics", svc.MetricsHandler())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
	log.Printf("listening on %s", cfg.HTTPAddr)
	log.Fatal(server.ListenAndServe())
}
