package salesforce_files_exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sfapi "github.com/isseis/go-salesforce-files-exporter/salesforce_api"
)

const (
	// DefaultBatchSize is the number of records downloaded concurrently.
	DefaultBatchSize = 10
	// DefaultDownloadTimeout bounds a single file download.
	DefaultDownloadTimeout = 5 * time.Minute
)

// Logger defines the interface for logging operations within the exporter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	FlushWebhook() error
}

// Credentials holds what NewExporter needs to open a Salesforce session.
type Credentials struct {
	Username     string
	Password     string
	LoginURL     string        // Defaults to sfapi.DefaultLoginURL
	APIVersion   string        // Defaults to sfapi.DefaultAPIVersion
	LoginTimeout time.Duration // Defaults to sfapi.DefaultLoginTimeout
}

// Exporter downloads Salesforce files into timestamped directories under baseDir.
type Exporter struct {
	session SessionInterface
	baseDir string // Directory under which export directories are created
	fs      FileSystemOperations
	logger  Logger // Logger for structured logging

	// batchSize is the number of downloads in flight at once. Always >= 1.
	batchSize int

	// downloadTimeout bounds each fetch. Zero disables the per-file timeout.
	downloadTimeout time.Duration

	now   func() time.Time
	runID string

	// writeManifest controls whether a manifest is saved next to the export directory.
	// Default is true.
	writeManifest bool
}

// ExporterOption defines a function type to set options for Exporter.
type ExporterOption func(*Exporter)

// WithBatchSize sets the number of concurrent downloads per batch. Values below 1 are treated as 1.
func WithBatchSize(size int) ExporterOption {
	return func(e *Exporter) {
		e.batchSize = clampBatchSize(size)
	}
}

// WithLogger sets the logger for Exporter.
// If not set, a fallback logger will be used.
func WithLogger(log Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = log
	}
}

// WithDownloadTimeout sets the timeout for downloading a single file.
func WithDownloadTimeout(d time.Duration) ExporterOption {
	return func(e *Exporter) {
		e.downloadTimeout = d
	}
}

// WithClock replaces time.Now, mainly for tests that need a fixed export directory name.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithManifest enables or disables writing the run manifest.
func WithManifest(enabled bool) ExporterOption {
	return func(e *Exporter) {
		e.writeManifest = enabled
	}
}

// WithRunID overrides the generated run identifier attached to every log line.
func WithRunID(id string) ExporterOption {
	return func(e *Exporter) {
		if id != "" {
			e.runID = id
		}
	}
}

// RunID returns the identifier of this exporter's run.
func (e *Exporter) RunID() string {
	return e.runID
}

// BatchSize returns the effective batch size.
func (e *Exporter) BatchSize() int {
	return e.batchSize
}

// getLogger returns the logger, falling back to a default logger if none is set.
func (e *Exporter) getLogger() Logger {
	if e.logger != nil {
		return e.logger
	}
	return &fallbackLogger{}
}

// GetLogger returns the logger instance for testing purposes.
func (e *Exporter) GetLogger() Logger {
	return e.getLogger()
}

// fallbackLogger writes plain lines to stdout when no Logger is configured.
type fallbackLogger struct{}

func (f *fallbackLogger) Debug(msg string, args ...any) {
	fmt.Printf("[DEBUG] %s\n", formatLogMessage(msg, args...))
}

func (f *fallbackLogger) Info(msg string, args ...any) {
	fmt.Printf("[INFO] %s\n", formatLogMessage(msg, args...))
}

func (f *fallbackLogger) Warn(msg string, args ...any) {
	fmt.Printf("[WARN] %s\n", formatLogMessage(msg, args...))
}

func (f *fallbackLogger) Error(msg string, args ...any) {
	fmt.Printf("[ERROR] %s\n", formatLogMessage(msg, args...))
}

func (f *fallbackLogger) FlushWebhook() error {
	return nil
}

// formatLogMessage formats the log message with key-value pairs.
// In case of an odd number of args, the last one is ignored.
func formatLogMessage(msg string, args ...any) string {
	result := msg
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			result += fmt.Sprintf(" %v=%v", args[i], args[i+1])
		}
	}
	return result
}

// NewExporter logs in to Salesforce and constructs an Exporter writing under baseDir.
// The login is abandoned after creds.LoginTimeout; in that case the returned error wraps
// sfapi.ErrLoginTimeout and no Exporter is created.
func NewExporter(ctx context.Context, creds Credentials, baseDir string, opts ...ExporterOption) (*Exporter, error) {
	loginURL := creds.LoginURL
	if loginURL == "" {
		loginURL = sfapi.DefaultLoginURL
	}
	session, err := sfapi.NewSalesforceSession(creds.Username, creds.Password, loginURL, creds.APIVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := session.LoginWithTimeout(ctx, creds.LoginTimeout); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return NewExporterWithDependencies(session, baseDir, &DefaultFileSystem{}, opts...), nil
}

// NewExporterWithDependencies constructs an Exporter with injected dependencies for session, base directory, and file system.
// Intended for testing and advanced use.
func NewExporterWithDependencies(session SessionInterface, baseDir string, fs FileSystemOperations, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		session:         session,
		baseDir:         baseDir,
		fs:              fs,
		batchSize:       DefaultBatchSize,
		downloadTimeout: DefaultDownloadTimeout,
		now:             time.Now,
		runID:           uuid.NewString(),
		writeManifest:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UserInfo returns the authenticated principal when the session exposes it.
func (e *Exporter) UserInfo() (sfapi.UserInfo, bool) {
	s, ok := e.session.(interface{ UserInfo() sfapi.UserInfo })
	if !ok {
		return sfapi.UserInfo{}, false
	}
	return s.UserInfo(), true
}

// APIVersion returns the Salesforce API version when the session exposes it.
func (e *Exporter) APIVersion() (string, bool) {
	s, ok := e.session.(interface{ APIVersion() string })
	if !ok {
		return "", false
	}
	return s.APIVersion(), true
}

// Close ends the server-side session, if any.
func (e *Exporter) Close(ctx context.Context) error {
	s, ok := e.session.(logoutSession)
	if !ok {
		return nil
	}
	if err := s.Logout(ctx); err != nil {
		e.getLogger().Warn("Failed to log out", "run_id", e.runID, "error", err)
		return err
	}
	return nil
}
