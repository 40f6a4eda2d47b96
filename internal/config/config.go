// Package config loads phoenixctl settings from an INI file and applies
// PHOENIX_* environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/ini.v1"

	"phoenix/internal/storage"
)

const EnvPrefix = "PHOENIX_"

const (
	DefaultLayer            = "L3_organisms::O4_day_mohk"
	DefaultPopulation       = 32
	DefaultGenomeLength     = 12
	DefaultTournamentSize   = 3
	DefaultGenerations      = 8
	DefaultSeed             = 1
	DefaultMutator          = "gaussian"
	DefaultMutationRate     = 0.10
	DefaultMutationSigma    = 0.15
	DefaultCheckpointPrefix = "demo"
	DefaultLogLevel         = "info"
)

type Config struct {
	Engine   EngineConfig   `envPrefix:"ENGINE_"`
	Mutation MutationConfig `envPrefix:"MUTATION_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Run      RunConfig      `envPrefix:"RUN_"`
}

type EngineConfig struct {
	Layer          string `ini:"layer" env:"LAYER"`
	Population     int    `ini:"population" env:"POPULATION"`
	GenomeLength   int    `ini:"genome_length" env:"GENOME_LENGTH"`
	TournamentSize int    `ini:"tournament_size" env:"TOURNAMENT_SIZE"`
}

type MutationConfig struct {
	Strategy string  `ini:"strategy" env:"STRATEGY"`
	Rate     float64 `ini:"rate" env:"RATE"`
	Sigma    float64 `ini:"sigma" env:"SIGMA"`
}

type StorageConfig struct {
	Kind          string `ini:"kind" env:"KIND"`
	Root          string `ini:"root" env:"ROOT"`
	SQLitePath    string `ini:"sqlite_path" env:"SQLITE_PATH"`
	RedisAddr     string `ini:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `ini:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `ini:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string `ini:"redis_prefix" env:"REDIS_PREFIX"`
}

type RunConfig struct {
	Generations      int    `ini:"generations" env:"GENERATIONS"`
	Seed             int64  `ini:"seed" env:"SEED"`
	CheckpointPrefix string `ini:"checkpoint_prefix" env:"CHECKPOINT_PREFIX"`
	ArtifactsDir     string `ini:"artifacts_dir" env:"ARTIFACTS_DIR"`
	MetricsOut       string `ini:"metrics_out" env:"METRICS_OUT"`
	LogLevel         string `ini:"log_level" env:"LOG_LEVEL"`
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			Layer:          DefaultLayer,
			Population:     DefaultPopulation,
			GenomeLength:   DefaultGenomeLength,
			TournamentSize: DefaultTournamentSize,
		},
		Mutation: MutationConfig{
			Strategy: DefaultMutator,
			Rate:     DefaultMutationRate,
			Sigma:    DefaultMutationSigma,
		},
		Storage: StorageConfig{
			Kind: storage.DefaultKind,
			Root: storage.DefaultRoot,
		},
		Run: RunConfig{
			Generations:      DefaultGenerations,
			Seed:             DefaultSeed,
			CheckpointPrefix: DefaultCheckpointPrefix,
			LogLevel:         DefaultLogLevel,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := mapFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	return finish(cfg)
}

// Parse is Load for an in-memory INI document.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := mapFile(&cfg, data); err != nil {
		return Config{}, err
	}
	return finish(cfg)
}

func mapFile(cfg *Config, source any) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, source)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sections := []struct {
		name   string
		target any
	}{
		{"engine", &cfg.Engine},
		{"mutation", &cfg.Mutation},
		{"storage", &cfg.Storage},
		{"run", &cfg.Run},
	}
	for _, section := range sections {
		if !file.HasSection(section.name) {
			continue
		}
		if err := file.Section(section.name).MapTo(section.target); err != nil {
			return fmt.Errorf("map [%s] section: %w", section.name, err)
		}
	}
	return nil
}

func finish(cfg Config) (Config, error) {
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Storage.Kind = strings.ToLower(strings.TrimSpace(cfg.Storage.Kind))
	cfg.Run.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Run.LogLevel))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Engine.Population <= 0 {
		errs = append(errs, fmt.Errorf("engine.population must be > 0, got %d", c.Engine.Population))
	}
	if c.Engine.GenomeLength <= 0 {
		errs = append(errs, fmt.Errorf("engine.genome_length must be > 0, got %d", c.Engine.GenomeLength))
	}
	if c.Engine.TournamentSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.tournament_size must be > 0, got %d", c.Engine.TournamentSize))
	}
	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 {
		errs = append(errs, fmt.Errorf("mutation.rate must be in [0,1], got %g", c.Mutation.Rate))
	}
	if c.Mutation.Sigma < 0 {
		errs = append(errs, fmt.Errorf("mutation.sigma must be >= 0, got %g", c.Mutation.Sigma))
	}
	if c.Run.Generations <= 0 {
		errs = append(errs, fmt.Errorf("run.generations must be > 0, got %d", c.Run.Generations))
	}
	switch c.Storage.Kind {
	case storage.KindFile, storage.KindMemory, storage.KindSQLite, storage.KindRedis:
	default:
		errs = append(errs, fmt.Errorf("storage.kind %q is not supported", c.Storage.Kind))
	}
	if c.Storage.Kind == storage.KindRedis && c.Storage.RedisAddr == "" {
		errs = append(errs, errors.New("storage.redis_addr is required for the redis backend"))
	}
	if c.Storage.Kind == storage.KindSQLite && c.Storage.SQLitePath == "" {
		errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite backend"))
	}
	return errors.Join(errs...)
}

func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Kind:          c.Storage.Kind,
		Root:          c.Storage.Root,
		SQLitePath:    c.Storage.SQLitePath,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		RedisPrefix:   c.Storage.RedisPrefix,
	}
}
