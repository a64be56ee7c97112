package main

import (
	"context"
	"errors"
	"flag"
	"path/filepath"
	"time"

	"hero-analyzer/internal/config"
	"hero-analyzer/internal/db"
	"hero-analyzer/internal/discord"
	"hero-analyzer/internal/heroes"
	"hero-analyzer/internal/match"
	"hero-analyzer/internal/publisher"
	"hero-analyzer/internal/report"
	"hero-analyzer/internal/stats"
	"hero-analyzer/internal/storage"

	"github.com/sirupsen/logrus"
)

var (
	inputDir   = flag.String("input-dir", "", "Directory of raw batch files (default: $DATA_DIR/players_matches)")
	outputDir  = flag.String("output-dir", "", "Directory for charts and exports (default: $OUTPUT_DIR)")
	pattern    = flag.String("pattern", match.DefaultPattern, "Glob for batch files inside the input directory")
	heroesPath = flag.String("heroes", "", "Hero lookup file (default: $DATA_DIR/heroes.json)")
	fromJSONL  = flag.Bool("from-jsonl", false, "Aggregate the existing matches.jsonl instead of raw batch files")
	renumber   = flag.String("renumber", "", "Renumber match_id in the given JSON lines file and exit")
	skipCharts = flag.Bool("skip-charts", false, "Skip chart rendering")
	skipSinks  = flag.Bool("skip-sinks", false, "Skip database and Redis sinks")
	archive    = flag.Bool("archive", false, "Compress processed batch files into $DATA_DIR/cold")
)

func main() {
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
	}

	if *renumber != "" {
		n, err := storage.RenumberFile(*renumber)
		if err != nil {
			log.Fatalf("Failed to renumber %s: %v", *renumber, err)
		}
		log.WithField("matches", n).Infof("[Reducer] Renumbered %s", *renumber)
		return
	}

	if *inputDir == "" {
		*inputDir = cfg.MatchesDir()
	}
	if *outputDir == "" {
		*outputDir = cfg.OutputDir
	}
	if *heroesPath == "" {
		*heroesPath = cfg.HeroesFile()
	}

	startTime := time.Now()
	ctx := context.Background()

	// Step 1: canonical matches and per-hero usage
	var (
		matchCount int
		usage      stats.Usage
		extracted  *match.ExtractResult
	)
	if *fromJSONL {
		matches, err := storage.ReadMatches(cfg.MatchesFile())
		if err != nil {
			log.Fatalf("Failed to read %s: %v", cfg.MatchesFile(), err)
		}
		matchCount = len(matches)
		usage = stats.Aggregate(matches)
	} else {
		extracted, err = match.NewExtractor(match.WithPattern(*pattern), match.WithExtractLogger(log)).ExtractDir(*inputDir)
		if errors.Is(err, match.ErrNoInputFiles) {
			log.Fatalf("No input data: %v", err)
		}
		if err != nil {
			log.Fatalf("Failed to extract matches: %v", err)
		}

		if err := storage.WriteMatches(cfg.MatchesFile(), extracted.Matches); err != nil {
			log.Fatalf("Failed to write %s: %v", cfg.MatchesFile(), err)
		}
		log.WithField("path", cfg.MatchesFile()).Info("[Reducer] Wrote canonical matches")

		matchCount = len(extracted.Matches)
		usage = stats.AggregateFiles(extracted.Files)
	}

	// Step 2: hero join and rates
	lookup, err := heroes.Load(*heroesPath)
	if err != nil {
		log.Fatalf("Failed to load heroes: %v", err)
	}
	rows, err := stats.BuildRows(usage, lookup)
	if err != nil {
		log.Fatalf("Failed to build hero stats: %v", err)
	}
	log.WithFields(logrus.Fields{
		"matches": matchCount,
		"heroes":  len(rows),
	}).Info("[Reducer] Aggregated hero stats")

	// Step 3: reports
	if !*skipCharts && len(rows) > 0 {
		paths, err := report.RenderCharts(*outputDir, rows)
		if err != nil {
			log.Fatalf("Failed to render charts: %v", err)
		}
		for _, p := range paths {
			log.WithField("path", p).Info("[Report] Wrote chart")
		}
	}

	export := report.DataExport{
		GameVersion: cfg.GameVersion,
		Matches:     matchCount,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Heroes:      rows,
	}
	manifest, err := report.ExportJSON(*outputDir, export)
	if err != nil {
		log.Fatalf("Failed to export JSON: %v", err)
	}
	log.WithField("sha256", manifest.SHA256).Infof("[Report] Wrote %s", report.DataFile)

	if err := report.ExportCSV(filepath.Join(*outputDir, report.CSVFile), rows); err != nil {
		log.Fatalf("Failed to export CSV: %v", err)
	}

	// Step 4: sinks
	if !*skipSinks {
		version := db.DataVersion{GameVersion: cfg.GameVersion, Matches: matchCount, UpdatedAt: export.GeneratedAt}
		for _, sink := range openSinks(ctx, cfg, log) {
			if err := pushRows(ctx, sink.store, version, rows); err != nil {
				log.Fatalf("Failed to push to %s: %v", sink.name, err)
			}
			log.Infof("[Sink] Pushed %d rows to %s", len(rows), sink.name)
			sink.store.Close()
		}

		if cfg.RedisURL != "" {
			if err := publish(ctx, cfg.RedisURL, export); err != nil {
				log.Errorf("[Redis] Failed to publish report: %v", err)
			} else {
				log.Info("[Redis] Published report")
			}
		}
	}

	// Step 5: archive processed batch files
	filesOK, filesFailed := 0, 0
	if extracted != nil {
		filesOK, filesFailed = extracted.FilesProcessed, len(extracted.Failures)
		if *archive {
			var done []string
			for _, f := range extracted.Files {
				if f.Err == nil {
					done = append(done, f.Path)
				}
			}
			n, err := storage.ArchiveFiles(done, cfg.ColdDir())
			if err != nil {
				log.Warnf("[Archive] %v", err)
			}
			log.WithField("files", n).Info("[Archive] Archived batch files")
		}
	}

	// Step 6: notify
	if cfg.DiscordWebhookURL != "" {
		summary := discord.RunSummary{
			Matches:     matchCount,
			Heroes:      len(rows),
			FilesOK:     filesOK,
			FilesFailed: filesFailed,
			GameVersion: cfg.GameVersion,
			TopPick:     topBy(rows, report.ColumnUsageRate),
			TopBan:      topBy(rows, report.ColumnBanRate),
			Runtime:     time.Since(startTime),
		}
		if err := discord.NewWebhookClient(cfg.DiscordWebhookURL).Send(ctx, discord.SummaryMessage(summary)); err != nil {
			log.Warnf("[Discord] Failed to send notification: %v", err)
		}
	}

	log.WithField("elapsed", time.Since(startTime).Round(time.Millisecond)).Info("[Reducer] Complete")
}

type namedSink struct {
	name  string
	store db.Store
}

// openSinks connects to every configured database. A sink that cannot be
// reached is logged and skipped.
func openSinks(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) []namedSink {
	var sinks []namedSink

	if cfg.TursoURL != "" {
		if s, err := db.NewTursoStore(cfg.TursoURL, cfg.TursoAuthToken); err != nil {
			log.Errorf("[Sink] Turso unavailable: %v", err)
		} else {
			sinks = append(sinks, namedSink{"turso", s})
		}
	}
	if cfg.SQLitePath != "" {
		if s, err := db.NewSQLiteStore(cfg.SQLitePath); err != nil {
			log.Errorf("[Sink] SQLite unavailable: %v", err)
		} else {
			sinks = append(sinks, namedSink{"sqlite", s})
		}
	}
	if cfg.DatabaseURL != "" {
		if s, err := db.NewPostgresStore(ctx, cfg.DatabaseURL); err != nil {
			log.Errorf("[Sink] Postgres unavailable: %v", err)
		} else {
			sinks = append(sinks, namedSink{"postgres", s})
		}
	}
	return sinks
}

func pushRows(ctx context.Context, store db.Store, version db.DataVersion, rows []stats.HeroStatsRow) error {
	if err := store.CreateTables(ctx); err != nil {
		return err
	}
	return store.ReplaceHeroStats(ctx, version, rows)
}

func publish(ctx context.Context, redisURL string, export report.DataExport) error {
	rp, err := publisher.NewRedisPublisher(redisURL)
	if err != nil {
		return err
	}
	defer rp.Close()
	_, err = rp.PublishReport(ctx, export)
	return err
}

// topBy returns the hero name with the highest value of column
func topBy(rows []stats.HeroStatsRow, column string) string {
	sorted, err := report.SortRows(rows, column, true)
	if err != nil || len(sorted) == 0 {
		return ""
	}
	return sorted[0].HeroName
}
