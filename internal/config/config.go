package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"hero-analyzer/internal/stratz"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ConfigName is the base name of the optional config file (hero-analyzer.toml, .yaml, .json)
const ConfigName = "hero-analyzer"

// envPaths are tried in order; the first .env found wins
var envPaths = []string{".env", "../.env", "../../.env"}

// Config holds settings shared by every command
type Config struct {
	StratzAPIKey      string
	DataDir           string
	OutputDir         string
	LogLevel          string
	TursoURL          string
	TursoAuthToken    string
	SQLitePath        string
	DatabaseURL       string
	RedisURL          string
	DiscordWebhookURL string
	DiscordBotToken   string
	DiscordChannelID  string
	Port              int
	GameVersion       int
	BatchSize         int
}

// LoadEnv loads the first .env file found and returns its path, or "" if none
func LoadEnv() string {
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads settings from defaults, an optional config file in the working
// directory, and the environment, in increasing priority
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with the config file searched for in dir
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", ".")
	v.SetDefault("output_dir", "EDA")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("game_version", 176)
	v.SetDefault("batch_size", 5)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		StratzAPIKey:      strings.Trim(v.GetString("stratz_api_key"), "\""),
		DataDir:           strings.Trim(v.GetString("data_dir"), "\""),
		OutputDir:         strings.Trim(v.GetString("output_dir"), "\""),
		LogLevel:          v.GetString("log_level"),
		TursoURL:          v.GetString("turso_database_url"),
		TursoAuthToken:    v.GetString("turso_auth_token"),
		SQLitePath:        v.GetString("sqlite_path"),
		DatabaseURL:       v.GetString("database_url"),
		RedisURL:          v.GetString("redis_url"),
		DiscordWebhookURL: v.GetString("discord_webhook_url"),
		DiscordBotToken:   v.GetString("discord_bot_token"),
		DiscordChannelID:  v.GetString("discord_channel_id"),
		Port:              v.GetInt("port"),
		GameVersion:       v.GetInt("game_version"),
		BatchSize:         v.GetInt("batch_size"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.GameVersion <= 0 {
		return fmt.Errorf("GAME_VERSION must be positive, got %d", c.GameVersion)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// RequireAPIKey returns stratz.ErrMissingAPIKey when no key is configured
func (c *Config) RequireAPIKey() error {
	if c.StratzAPIKey == "" {
		return stratz.ErrMissingAPIKey
	}
	return nil
}

// PlayersDir holds one leaderboard file per division
func (c *Config) PlayersDir() string { return filepath.Join(c.DataDir, "players") }

// PlayersCSV is the merged leaderboard table
func (c *Config) PlayersCSV() string { return filepath.Join(c.DataDir, "players.csv") }

// MatchesDir holds the raw match batch files
func (c *Config) MatchesDir() string { return filepath.Join(c.DataDir, "players_matches") }

// ColdDir holds archived batch files
func (c *Config) ColdDir() string { return filepath.Join(c.DataDir, "cold") }

// MatchesFile is the canonical JSON lines export
func (c *Config) MatchesFile() string { return filepath.Join(c.DataDir, "matches.jsonl") }

// HeroesFile is the hero lookup
func (c *Config) HeroesFile() string { return filepath.Join(c.DataDir, "heroes.json") }

// NewLogger builds the shared logger
func NewLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log, nil
}
