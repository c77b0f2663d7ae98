package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = 5000
	DefaultSQLiteURL      = "file:splitmate.db"
	DefaultActivityBuffer = 100
)

var (
	ErrInvalidPort        = errors.New("invalid port")
	ErrUnknownDriver      = errors.New("unknown database driver (use sqlite or postgres)")
	ErrDatabaseURLMissing = errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
	ErrInvalidBuffer      = errors.New("activity buffer must be positive")
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseDriver string
	PublicURL      string
	ActivityBuffer int
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// LoadDotEnv copies variables from path into the environment. Variables
// already set win, and a missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Parse reads flags first, then environment variables, then defaults.
func Parse(args []string) (Config, error) {
	var cfg Config

	flags := flag.NewFlagSet("splitmate", flag.ContinueOnError)
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	flags.StringVar(&cfg.DatabaseDriver, "t", "", "Database driver (sqlite or postgres)")
	flags.StringVar(&cfg.PublicURL, "public-url", "", "Base URL used to build share links")
	flags.IntVar(&cfg.ActivityBuffer, "activity-buffer", 0, "Activity log buffer size")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		port, err := intFromEnv("PORT", DefaultPort)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidPort, err)
		}
		cfg.Port = port
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}

	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = os.Getenv("DATABASE_DRIVER")
	}
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
	}
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == "postgres" {
			return Config{}, ErrDatabaseURLMissing
		}
		cfg.DatabaseURL = DefaultSQLiteURL
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = os.Getenv("PUBLIC_URL")
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if cfg.ActivityBuffer == 0 {
		buf, err := intFromEnv("ACTIVITY_BUFFER", DefaultActivityBuffer)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidBuffer, err)
		}
		cfg.ActivityBuffer = buf
	}
	if cfg.ActivityBuffer < 1 {
		return Config{}, ErrInvalidBuffer
	}

	return cfg, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q", key, v)
	}
	return n, nil
}
