package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// Logger is the interface for application-wide logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	FlushWebhook() error
}

const webhookTimeout = 10 * time.Second

// hybridLogger outputs to stdout in real-time and buffers logs for webhook.
type hybridLogger struct {
	stdoutHandler slog.Handler
	webhookBuffer []slog.Record
	mu            sync.Mutex
	minLevel      Level
	webhookURL    string
	appName       string
	env           string
	client        *http.Client
}

// NewHybridLogger creates a new hybrid logger.
func NewHybridLogger(cfg Config) Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == FormatText {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: webhookTimeout}
	}
	return &hybridLogger{
		stdoutHandler: handler,
		minLevel:      cfg.Level,
		webhookURL:    cfg.WebhookURL,
		appName:       cfg.AppName,
		env:           cfg.Environment,
		client:        client,
	}
}

// webhookEntry is one buffered record in the webhook payload.
type webhookEntry struct {
	Time  string         `json:"time"`
	Level string         `json:"level"`
	Msg   string         `json:"msg"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

type webhookPayload struct {
	App  string         `json:"app"`
	Env  string         `json:"env"`
	Logs []webhookEntry `json:"logs"`
}

// sendToWebhook posts the buffered records as a single JSON document.
func sendToWebhook(client *http.Client, webhookURL, appName, env string, logs []slog.Record) error {
	payload := webhookPayload{App: appName, Env: env, Logs: make([]webhookEntry, 0, len(logs))}
	for _, rec := range logs {
		entry := webhookEntry{
			Time:  rec.Time.Format(time.RFC3339Nano),
			Level: rec.Level.String(),
			Msg:   rec.Message,
		}
		rec.Attrs(func(a slog.Attr) bool {
			if entry.Attrs == nil {
				entry.Attrs = make(map[string]any, rec.NumAttrs())
			}
			entry.Attrs[a.Key] = attrValue(a.Value)
			return true
		})
		payload.Logs = append(payload.Logs, entry)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send logs to webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// attrValue converts a slog value into something encoding/json renders readably.
func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		m := make(map[string]any)
		for _, a := range v.Group() {
			m[a.Key] = attrValue(a.Value)
		}
		return m
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		if s, ok := v.Any().(fmt.Stringer); ok {
			return s.String()
		}
		return v.Any()
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.Any()
	}
}

// slogLevel converts our Level to slog.Level
func slogLevel(lvl Level) slog.Level {
	switch lvl {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (h *hybridLogger) log(level slog.Level, msg string, args ...interface{}) {
	if levelFromSlog(level) < h.minLevel {
		return
	}
	rec := slog.NewRecord(time.Now(), level, msg, 0)
	rec.Add(args...)
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.stdoutHandler.Handle(context.Background(), rec)
	if h.webhookURL != "" {
		h.webhookBuffer = append(h.webhookBuffer, rec)
	}
}

func (h *hybridLogger) Debug(msg string, args ...interface{}) { h.log(slog.LevelDebug, msg, args...) }
func (h *hybridLogger) Info(msg string, args ...interface{})  { h.log(slog.LevelInfo, msg, args...) }
func (h *hybridLogger) Warn(msg string, args ...interface{})  { h.log(slog.LevelWarn, msg, args...) }
func (h *hybridLogger) Error(msg string, args ...interface{}) { h.log(slog.LevelError, msg, args...) }
func (h *hybridLogger) FlushWebhook() error {
	h.mu.Lock()
	if h.webhookURL == "" || len(h.webhookBuffer) == 0 {
		h.mu.Unlock()
		return nil
	}
	logs := make([]slog.Record, len(h.webhookBuffer))
	copy(logs, h.webhookBuffer)
	h.webhookBuffer = h.webhookBuffer[:0]
	h.mu.Unlock()
	return sendToWebhook(h.client, h.webhookURL, h.appName, h.env, logs)
}

// levelFromSlog converts slog.Level to our Level type
func levelFromSlog(lvl slog.Level) Level {
	switch lvl {
	case slog.LevelDebug:
		return LevelDebug
	case slog.LevelWarn:
		return LevelWarn
	case slog.LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}
