package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"path/filepath"
	"time"

	"hero-analyzer/internal/api"
	"hero-analyzer/internal/collector"
	"hero-analyzer/internal/config"
	"hero-analyzer/internal/db"
	"hero-analyzer/internal/publisher"
	"hero-analyzer/internal/report"
)

func main() {
	outputDir := flag.String("output-dir", "", "Directory holding hero_stats.json and charts (default: $OUTPUT_DIR)")
	flag.Parse()

	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	if *outputDir == "" {
		*outputDir = cfg.OutputDir
	}

	var src api.Source
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := db.NewPostgresStore(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
		src = api.StoreSource{Store: store}
		log.Info("[Server] Serving hero stats from Postgres")
	} else if cfg.RedisURL != "" {
		rp, err := publisher.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rp.Close()
		src = api.RedisSource{Publisher: rp}
		log.Info("[Server] Serving the latest report from Redis")
	} else {
		path := filepath.Join(*outputDir, report.DataFile)
		src = api.FileSource{Path: path}
		log.WithField("path", path).Info("[Server] Serving hero stats from file")
	}

	server := api.NewServer(cfg.Port, src, *outputDir, log)

	ctx := collector.SetupSignalHandler(func(context.Context) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("[Server] Shutdown failed: %v", err)
		}
	})

	log.Infof("[Server] Listening on :%d", cfg.Port)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	<-ctx.Done()
	log.Info("[Server] Stopped")
}
