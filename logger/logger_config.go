package logger

import (
	"io"
	"net/http"
)

// Level represents the severity of the log message.
type Level int

const (
	// LevelDebug is for debug-level messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Format selects the stdout encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds configuration for the logger.
type Config struct {
	Level       Level        // Log level
	Format      Format       // Stdout encoding, FormatJSON when empty
	WebhookURL  string       // Webhook URL for sending logs
	AppName     string       // Application name
	Environment string       // Environment (development, staging, production)
	Output      io.Writer    // Output destination for stdout (for testing)
	HTTPClient  *http.Client // Client used for webhook delivery (for testing)
}

// ParseLevel parses a string into a Level (defaults to LevelInfo).
func ParseLevel(lvl string) Level {
	switch lvl {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses a string into a Format (defaults to FormatJSON).
func ParseFormat(f string) Format {
	if Format(f) == FormatText {
		return FormatText
	}
	return FormatJSON
}
