package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"hero-analyzer/internal/config"

	"github.com/sirupsen/logrus"
)

func main() {
	// Flags
	skipCollector := flag.Bool("reduce-only", false, "Skip collector, only run reducer")
	skipPlayers := flag.Bool("skip-players", false, "Reuse the existing players.csv")
	maxPlayers := flag.Int("max-players", 0, "Only collect matches for the first N players (0 = all)")
	outputDir := flag.String("output-dir", "", "Directory for reducer output")
	archive := flag.Bool("archive", false, "Archive processed batch files after reducing")
	flag.Parse()

	if path := config.LoadEnv(); path != "" {
		logrus.Infof("Loaded .env from: %s", path)
	}

	rootDir := findModuleDir()
	if rootDir == "" {
		logrus.Fatal("Could not find the hero-analyzer module directory")
	}
	logrus.Infof("Working directory: %s", rootDir)

	startTime := time.Now()

	// Step 1: Run collector (unless skip flag set)
	if !*skipCollector {
		printStep("STEP 1: COLLECTING MATCH DATA")

		collectorArgs := []string{"run", "./cmd/collector", fmt.Sprintf("--max-players=%d", *maxPlayers)}
		if *skipPlayers {
			collectorArgs = append(collectorArgs, "--skip-players")
		}

		if err := runCommand(rootDir, "go", collectorArgs...); err != nil {
			logrus.Fatalf("Collector failed: %v", err)
		}

		logrus.Infof("Collection completed in %s", time.Since(startTime).Round(time.Second))
	}

	// Step 2: Run reducer
	printStep("STEP 2: REDUCING & EXPORTING DATA")

	reducerArgs := []string{"run", "./cmd/reducer"}
	if *outputDir != "" {
		reducerArgs = append(reducerArgs, "--output-dir="+*outputDir)
	}
	if *archive {
		reducerArgs = append(reducerArgs, "--archive")
	}

	if err := runCommand(rootDir, "go", reducerArgs...); err != nil {
		logrus.Fatalf("Reducer failed: %v", err)
	}

	printStep("PIPELINE COMPLETE")
	logrus.Infof("Total time: %s", time.Since(startTime).Round(time.Second))
}

func printStep(title string) {
	fmt.Println("\n========================================")
	fmt.Println(title)
	fmt.Println("========================================")
}

func runCommand(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	logrus.Infof("Running: %s %s", name, strings.Join(args, " "))
	return cmd.Run()
}

func findModuleDir() string {
	candidates := []string{".", "..", "../.."}

	for _, candidate := range candidates {
		path := filepath.Join(candidate, "cmd", "collector", "main.go")
		if _, err := os.Stat(path); err == nil {
			abs, _ := filepath.Abs(candidate)
			return abs
		}
	}

	return ""
}
