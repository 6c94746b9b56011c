// Package logger is the process-wide log sink. Operators read the console
// form on the server; LOG_FORMAT=json switches to one JSON object per line
// for log shippers.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects how entries are rendered.
type Format int

const (
	// Console renders "<time> [level] message" lines without colour.
	Console Format = iota
	// JSON renders zerolog's native JSON lines.
	JSON
)

// ParseFormat maps a LOG_FORMAT value to a Format; unknown values fall back
// to Console.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return JSON
	}
	return Console
}

var (
	format           = Console
	out    io.Writer = os.Stdout
	log              = build(out, format)
)

func build(w io.Writer, f Format) zerolog.Logger {
	if f == JSON {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	cw.FormatLevel = func(i interface{}) string {
		return fmt.Sprintf("[%s]", i)
	}
	cw.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// Init configures the global logger from the environment. LOG_FORMAT picks
// the rendering and DEBUG enables debug messages.
func Init() {
	format = ParseFormat(os.Getenv("LOG_FORMAT"))
	out = os.Stdout
	log = build(out, format)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if _, exists := os.LookupEnv("DEBUG"); exists {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// SetOutput redirects entries to w, keeping the current format.
func SetOutput(w io.Writer) {
	out = w
	log = build(out, format)
}

// SetFormat switches the rendering, keeping the current output.
func SetFormat(f Format) {
	format = f
	log = build(out, format)
}

func Debug(msg string, args ...interface{}) {
	log.Debug().Msgf(msg, args...)
}

func Info(msg string, args ...interface{}) {
	log.Info().Msgf(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	log.Warn().Msgf(msg, args...)
}

func Error(msg string, args ...interface{}) {
	log.Error().Msgf(msg, args...)
}

// Fatal logs and exits with status 1.
func Fatal(msg string, args ...interface{}) {
	log.Fatal().Msgf(msg, args...)
}
