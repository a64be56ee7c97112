package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"hero-analyzer/internal/collector"
	"hero-analyzer/internal/config"
	"hero-analyzer/internal/discord"
	"hero-analyzer/internal/heroes"
	"hero-analyzer/internal/players"
	"hero-analyzer/internal/stratz"

	"github.com/sirupsen/logrus"
)

func main() {
	skipPlayers := flag.Bool("skip-players", false, "Reuse the existing players.csv instead of fetching leaderboards")
	fetchHeroes := flag.Bool("heroes", true, "Fetch hero constants into heroes.json")
	take := flag.Int("take", players.DefaultTake, "Leaderboard entries to request per division")
	maxPlayers := flag.Int("max-players", 0, "Only collect matches for the first N players (0 = all)")
	flag.Parse()

	envPath := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Failed to create logger: %v", err)
	}
	if envPath != "" {
		log.Infof("Loaded .env from: %s", envPath)
	} else {
		log.Info("No .env file found, using environment variables")
	}

	if err := cfg.RequireAPIKey(); err != nil {
		log.Fatal(err)
	}

	ctx := collector.SetupSignalHandler(nil)
	startTime := time.Now()

	// Validate the key before starting a long run
	valid, err := stratz.NewKeyValidator().ValidateKey(ctx, cfg.StratzAPIKey)
	if err != nil {
		log.Fatalf("Failed to validate API key: %v", err)
	}
	if !valid {
		log.Fatal("STRATZ_API_KEY was rejected")
	}

	client, err := stratz.NewClient(cfg.StratzAPIKey, stratz.WithLogger(log))
	if err != nil {
		log.Fatalf("Failed to create STRATZ client: %v", err)
	}

	// Step 1: leaderboards -> players.csv
	if !*skipPlayers {
		saved, err := players.FetchDivisions(ctx, client, cfg.PlayersDir(), stratz.Divisions, *take, log)
		if err != nil {
			log.Fatalf("Failed to fetch leaderboards: %v", err)
		}
		rows, err := players.MergeDivisions(cfg.PlayersDir(), stratz.Divisions, cfg.PlayersCSV(), log)
		if err != nil {
			log.Fatalf("Failed to merge leaderboards: %v", err)
		}
		log.WithFields(logrus.Fields{"divisions": saved, "players": rows}).Info("[Players] Wrote players.csv")
	}

	// Step 2: hero constants -> heroes.json
	if *fetchHeroes {
		resp, err := client.FetchHeroConstants(ctx)
		if err != nil {
			log.Errorf("[Heroes] Failed to fetch hero constants: %v", err)
		} else if err := heroes.Write(cfg.HeroesFile(), heroes.FromConstants(resp)); err != nil {
			log.Errorf("[Heroes] Failed to write heroes file: %v", err)
		} else {
			log.WithField("heroes", len(resp.Constants.Heroes)).Info("[Heroes] Wrote heroes.json")
		}
	}

	// Step 3: players.csv -> match batches
	ids, err := players.ReadPlayerIDs(cfg.PlayersCSV())
	if err != nil {
		log.Fatalf("Failed to read player ids: %v", err)
	}
	if *maxPlayers > 0 && *maxPlayers < len(ids) {
		ids = ids[:*maxPlayers]
	}
	log.WithField("players", len(ids)).Info("[Collector] Fetching matches")

	colCfg := collector.Config{
		BatchSize:   cfg.BatchSize,
		GameVersion: cfg.GameVersion,
		OutputDir:   cfg.MatchesDir(),
	}
	c := collector.NewCollector(client, colCfg, log)

	runStats, err := c.Run(ctx, ids)
	for errors.Is(err, stratz.ErrUnauthorized) {
		notifyKeyRejected(cfg, runStats, time.Since(startTime), log)

		// With a bot configured, wait for a replacement key and resume.
		// Batches already on disk are skipped by the next run.
		key, werr := waitForNewKey(ctx, cfg, log)
		if werr != nil {
			break
		}
		if client, werr = stratz.NewClient(key, stratz.WithLogger(log)); werr != nil {
			break
		}
		log.Info("[Collector] Resuming with new API key")
		c = collector.NewCollector(client, colCfg, log)
		runStats, err = c.Run(ctx, ids)
	}

	if runStats != nil {
		log.WithFields(logrus.Fields{
			"batches": runStats.Batches,
			"fetched": runStats.Fetched,
			"skipped": runStats.Skipped,
			"failed":  runStats.Failed,
			"elapsed": time.Since(startTime).Round(time.Second),
		}).Info("[Collector] Done")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Collector stopped: %v", err)
		os.Exit(1)
	}
}

func notifyKeyRejected(cfg *config.Config, runStats *collector.Stats, runtime time.Duration, log logrus.FieldLogger) {
	fetched := 0
	if runStats != nil {
		fetched = runStats.Fetched
	}
	msg := discord.KeyRejectedMessage(fetched, runtime)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.DiscordWebhookURL != "" {
		if err := discord.NewWebhookClient(cfg.DiscordWebhookURL).Send(ctx, msg); err != nil {
			log.Warnf("[Discord] Failed to send notification: %v", err)
		}
	} else if cfg.DiscordBotToken != "" && cfg.DiscordChannelID != "" {
		finder := discord.NewKeyFinder(cfg.DiscordBotToken, cfg.DiscordChannelID, discord.WithLogger(log))
		if err := finder.Post(ctx, msg); err != nil {
			log.Warnf("[Discord] Failed to send notification: %v", err)
		}
	}
}

// waitForNewKey polls the configured Discord channel until a key that
// STRATZ accepts is posted
func waitForNewKey(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (string, error) {
	if cfg.DiscordBotToken == "" || cfg.DiscordChannelID == "" {
		return "", errors.New("no Discord bot configured")
	}

	finder := discord.NewKeyFinder(cfg.DiscordBotToken, cfg.DiscordChannelID, discord.WithLogger(log))
	validator := stratz.NewKeyValidator()
	since := time.Now()

	for {
		key, err := finder.WaitForKey(ctx, since)
		if err != nil {
			return "", err
		}
		valid, err := validator.ValidateKey(ctx, key)
		if err == nil && valid {
			return key, nil
		}
		log.Warn("[KeyFinder] Posted key was rejected, waiting for another")
		since = time.Now()
	}
}
