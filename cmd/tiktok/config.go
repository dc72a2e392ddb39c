package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"

	tiktok "github.com/RavensCloud/tiktok-userfeed"
)

// loadDotenv loads .env from the working directory if there is one.
// Variables already set in the environment win.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// configFromEnv reads scraper settings from TIKTOK_* variables.
func configFromEnv(logger *slog.Logger) tiktok.Config {
	browserFetch, _ := strconv.ParseBool(env.Str("TIKTOK_BROWSER_FETCH", "false"))
	return tiktok.Config{
		BaseURL:      env.Str("TIKTOK_BASE_URL", "https://www.tiktok.com"),
		Proxy:        env.Str("TIKTOK_PROXY", ""),
		MsToken:      env.Str("TIKTOK_MS_TOKEN", ""),
		CookiesFile:  env.Str("TIKTOK_COOKIES", ""),
		APIDelay:     env.Duration("TIKTOK_API_DELAY", 2*time.Second),
		PageDelay:    env.Duration("TIKTOK_PAGE_DELAY", 1*time.Second),
		Timeout:      env.Duration("TIKTOK_TIMEOUT", 15*time.Second),
		MaxRetries:   env.Int("TIKTOK_MAX_RETRIES", 2),
		RetryWait:    env.Duration("TIKTOK_RETRY_WAIT", time.Second),
		BrowserFetch: browserFetch,
		Logger:       logger,
	}
}

// newLogger builds the stderr text logger. Unknown levels fall back to info.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
