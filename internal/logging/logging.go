// Package logging builds the application's zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel = "FLOWDESK_LOG_LEVEL"
	EnvLogFile  = "FLOWDESK_LOG_FILE"
	EnvLogJSON  = "FLOWDESK_LOG_JSON"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the configured log output. Env vars override it.
type Config struct {
	Level string
	File  string
	JSON  bool
}

type settings struct {
	level     zerolog.Level
	file      string
	json      bool
	timestamp bool
	discard   bool
}

func defaultSettings(profile Profile, cfg Config) settings {
	s := settings{level: zerolog.InfoLevel, file: cfg.File, json: cfg.JSON, timestamp: true}
	if profile == ProfileTest {
		s.level = zerolog.DebugLevel
		s.timestamp = false
		s.discard = true
	}
	if lvl, ok := parseLevel(cfg.Level); ok && profile == ProfileRuntime {
		s.level = lvl
	}
	return s
}

func applyEnvOverrides(s *settings) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		s.level = lvl
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		s.file = v
		s.discard = false
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		s.json = v
	}
}

// Stderr as the log file sends output to standard error.
const Stderr = "-"

// New returns a logger for app and the file it writes to, which the caller
// closes on exit. Without a file the logger discards output.
func New(app string, profile Profile, cfg Config) (zerolog.Logger, io.Closer, error) {
	s := defaultSettings(profile, cfg)
	applyEnvOverrides(&s)

	var out io.Writer = io.Discard
	var closer io.Closer = nopCloser{}
	switch {
	case s.discard || s.file == "":
	case s.file == Stderr:
		out = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log dir: %w", err)
		}
		f, err := os.OpenFile(s.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	if !s.json {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(s.level).With().Str("app", app)
	if s.timestamp {
		ctx = ctx.Timestamp()
	}
	logger := ctx.Logger()
	log.Logger = logger
	return logger, closer, nil
}

// Component derives a logger tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
