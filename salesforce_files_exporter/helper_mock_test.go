package salesforce_files_exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sfapi "github.com/isseis/go-salesforce-files-exporter/salesforce_api"
)

// MockSalesforceSession is a func-field implementation of SessionInterface.
type MockSalesforceSession struct {
	QueryFunc     func(ctx context.Context, soql string) (*sfapi.QueryResponse, error)
	QueryMoreFunc func(ctx context.Context, nextRecordsURL string) (*sfapi.QueryResponse, error)
	DownloadFunc  func(ctx context.Context, versionID sfapi.ContentVersionID) (*sfapi.DownloadResponse, error)
	LogoutFunc    func(ctx context.Context) error

	mu        sync.Mutex
	downloads []sfapi.ContentVersionID
}

func (m *MockSalesforceSession) Query(ctx context.Context, soql string) (*sfapi.QueryResponse, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, soql)
	}
	return &sfapi.QueryResponse{Done: true}, nil
}

func (m *MockSalesforceSession) QueryMore(ctx context.Context, nextRecordsURL string) (*sfapi.QueryResponse, error) {
	if m.QueryMoreFunc != nil {
		return m.QueryMoreFunc(ctx, nextRecordsURL)
	}
	return nil, errors.New("QueryMoreFunc not set")
}

func (m *MockSalesforceSession) DownloadVersionData(ctx context.Context, versionID sfapi.ContentVersionID) (*sfapi.DownloadResponse, error) {
	m.mu.Lock()
	m.downloads = append(m.downloads, versionID)
	m.mu.Unlock()
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, versionID)
	}
	return &sfapi.DownloadResponse{Content: []byte("content of " + string(versionID))}, nil
}

func (m *MockSalesforceSession) Logout(ctx context.Context) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

// DownloadCount returns the number of DownloadVersionData calls so far.
func (m *MockSalesforceSession) DownloadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.downloads)
}

// MockFileSystem wraps the real file system and lets tests inject failures.
// It is safe for concurrent use.
type MockFileSystem struct {
	DefaultFileSystem
	CreateExclusiveFunc func(path string) error
	WriteFileFunc       func(path string, data []byte) error
	RemoveFunc          func(path string) error

	mu      sync.Mutex
	removed []string
}

func (m *MockFileSystem) CreateExclusive(path string, perm os.FileMode) error {
	if m.CreateExclusiveFunc != nil {
		if err := m.CreateExclusiveFunc(path); err != nil {
			return err
		}
	}
	return m.DefaultFileSystem.CreateExclusive(path, perm)
}

func (m *MockFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	if m.WriteFileFunc != nil {
		if err := m.WriteFileFunc(path, data); err != nil {
			return err
		}
	}
	return m.DefaultFileSystem.WriteFile(path, data, perm)
}

func (m *MockFileSystem) Remove(path string) error {
	m.mu.Lock()
	m.removed = append(m.removed, filepath.Base(path))
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		if err := m.RemoveFunc(path); err != nil {
			return err
		}
	}
	return m.DefaultFileSystem.Remove(path)
}

// Removed returns the base names of removed files.
func (m *MockFileSystem) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// recordingLogger keeps every log line for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("[%s] %s", level, formatLogMessage(msg, args...)))
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }
func (l *recordingLogger) FlushWebhook() error           { return nil }

func (l *recordingLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

var fixedNow = time.Date(2025, 7, 1, 14, 3, 59, 0, time.Local)

func fixedClock() time.Time { return fixedNow }

// makeRecords returns n records titled "File <i>" with ids 068V<i>.
func makeRecords(n int) []ExportRecord {
	records := make([]ExportRecord, n)
	for i := range records {
		records[i] = ExportRecord{
			VersionID: sfapi.ContentVersionID(fmt.Sprintf("068V%03d", i)),
			Title:     fmt.Sprintf("File %d", i),
			Extension: "pdf",
		}
	}
	return records
}

// makeRows converts records into query rows.
func makeRows(records []ExportRecord) []sfapi.ContentDocumentLinkRecord {
	rows := make([]sfapi.ContentDocumentLinkRecord, len(records))
	for i, r := range records {
		rows[i] = sfapi.ContentDocumentLinkRecord{ContentDocument: sfapi.ContentDocument{
			LatestPublishedVersionID: r.VersionID,
			Title:                    r.Title,
			FileExtension:            r.Extension,
		}}
	}
	return rows
}

// newTestExporter builds an exporter writing under a fresh temporary directory.
func newTestExporter(t *testing.T, session SessionInterface, fs FileSystemOperations, opts ...ExporterOption) (*Exporter, *recordingLogger) {
	t.Helper()
	log := &recordingLogger{}
	if fs == nil {
		fs = &DefaultFileSystem{}
	}
	base := []ExporterOption{WithLogger(log), WithClock(fixedClock), WithRunID("test-run")}
	return NewExporterWithDependencies(session, t.TempDir(), fs, append(base, opts...)...), log
}

// newExportDir creates an empty export directory for pipeline tests.
func newExportDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), FormatTimestamp(fixedNow))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create export dir: %v", err)
	}
	return dir
}
