package main

import (
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"phoenix/internal/config"
)

// commonFlags are shared by every subcommand that opens a store.
type commonFlags struct {
	configPath *string
	envFile    *string
	storeKind  *string
	root       *string
	sqlitePath *string
	redisAddr  *string
	logLevel   *string
}

func bindCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "", "INI config path"),
		envFile:    fs.String("env-file", "", "dotenv file with PHOENIX_* overrides"),
		storeKind:  fs.String("store", "", "checkpoint backend: file|memory|sqlite|redis"),
		root:       fs.String("root", "", "checkpoint directory for the file backend"),
		sqlitePath: fs.String("sqlite-path", "", "database path for the sqlite backend"),
		redisAddr:  fs.String("redis-addr", "", "host:port for the redis backend"),
		logLevel:   fs.String("log-level", "", "log level: debug|info|warn|error"),
	}
}

// load resolves settings in order: defaults, INI file, dotenv and process
// environment, then flags that were set explicitly.
func (c commonFlags) load(fs *flag.FlagSet) (config.Config, error) {
	if *c.envFile != "" {
		if err := godotenv.Load(*c.envFile); err != nil {
			return config.Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return config.Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "store":
			cfg.Storage.Kind = *c.storeKind
		case "root":
			cfg.Storage.Root = *c.root
		case "sqlite-path":
			cfg.Storage.SQLitePath = *c.sqlitePath
		case "redis-addr":
			cfg.Storage.RedisAddr = *c.redisAddr
		case "log-level":
			cfg.Run.LogLevel = *c.logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
