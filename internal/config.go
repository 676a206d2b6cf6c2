// Package internal holds process-level plumbing shared by the binaries.
package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT,default=5s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	CharReplacement   string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}

// CharacterRune validates that the replacement setting is one single
// character.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// ParseLogLevel maps the LOG_LEVEL setting to a slog level, defaulting
// to Info on anything unknown.
func ParseLogLevel(str string) slog.Level {
	switch strings.ToLower(str) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
