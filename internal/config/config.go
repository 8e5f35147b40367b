package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	LineEnding      string
	DBPath          string
	Verbose         bool
	FetchTimeout    time.Duration
	MaxIncludeDepth int
	WatchInterval   time.Duration
}

// LoadEnv loads the given .env files, or ./.env when none are given. A
// missing file is not an error.
func LoadEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.Debug("no .env file, using the process environment")
			return nil
		}
		logrus.WithError(err).Error("godotenv.Load failed")
		return err
	}
	return nil
}

func Load() Config {
	return Config{
		LineEnding:      getenv("ARCHIVE_LINE_ENDING", "lf"),
		DBPath:          getenv("ARCHIVE_DB_PATH", "./data/archive.db"),
		Verbose:         getenvBool("ARCHIVE_VERBOSE", false),
		FetchTimeout:    time.Duration(getenvInt("ARCHIVE_FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxIncludeDepth: getenvInt("ARCHIVE_MAX_INCLUDE_DEPTH", 32),
		WatchInterval:   time.Duration(getenvInt("ARCHIVE_WATCH_INTERVAL_SECONDS", 10)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
