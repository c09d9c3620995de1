// Package export_manifest records the outcome of an export run as a JSON document
// stored next to the export directory.
package export_manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	MANIFEST_VERSION = 1
	MANIFEST_MAGIC   = "SALESFORCE_FILES_EXPORTER"
)

// Status is the outcome of one entry (enum-like string type).
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusFailed     Status = "failed"
)

// Entry describes one exported record, in the order the records were processed.
type Entry struct {
	VersionID string
	Title     string
	Extension string
	Status    Status
	Filename  string // Set when Status is StatusDownloaded
	Bytes     int
	Error     string // Set when Status is StatusFailed
	ErrorKind string
}

// Manifest summarizes one export run.
type Manifest struct {
	RunID     string
	Query     string
	ExportDir string
	Started   time.Time
	Duration  time.Duration
	Total     int
	Success   int
	Failed    int
	Entries   []Entry
}

// PathFor returns the manifest location for an export directory: a sibling file
// named after the directory, so it can never collide with an exported file.
func PathFor(exportDir string) string {
	return filepath.Clean(exportDir) + ".manifest.json"
}

// jsonHeader is used for marshaling/unmarshaling metadata for manifest files.
type jsonHeader struct {
	Version int    `json:"version"`
	Magic   string `json:"magic"`
	Created string `json:"created"`
}

type jsonEntry struct {
	VersionID string `json:"version_id"`
	Title     string `json:"title"`
	Extension string `json:"extension"`
	Status    Status `json:"status"`
	Filename  string `json:"filename,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

type jsonManifest struct {
	Header    jsonHeader  `json:"header"`
	RunID     string      `json:"run_id"`
	Query     string      `json:"query"`
	ExportDir string      `json:"export_dir"`
	Started   string      `json:"started"`
	Duration  float64     `json:"duration_seconds"`
	Total     int         `json:"total"`
	Success   int         `json:"success"`
	Failed    int         `json:"failed"`
	Entries   []jsonEntry `json:"entries"`
}

// validate checks that the JSON header matches the expected version and magic string.
func (hdr *jsonHeader) validate() error {
	if hdr.Version != MANIFEST_VERSION {
		return fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.Magic != MANIFEST_MAGIC {
		return fmt.Errorf("invalid magic: %s", hdr.Magic)
	}
	return nil
}

// Validate checks that the counters agree with each other and with the entries.
func (m *Manifest) Validate() error {
	if m.Success+m.Failed != m.Total {
		return fmt.Errorf("success (%d) + failed (%d) != total (%d)", m.Success, m.Failed, m.Total)
	}
	if len(m.Entries) != m.Total {
		return fmt.Errorf("entry count %d != total %d", len(m.Entries), m.Total)
	}
	failed := 0
	for _, e := range m.Entries {
		if e.Status == StatusFailed {
			failed++
		}
	}
	if failed != m.Failed {
		return fmt.Errorf("failed entries %d != failed count %d", failed, m.Failed)
	}
	return nil
}

// Write encodes the manifest as indented JSON.
func (m *Manifest) Write(w io.Writer) error {
	entries := make([]jsonEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		entries = append(entries, jsonEntry(e))
	}
	doc := jsonManifest{
		Header: jsonHeader{
			Version: MANIFEST_VERSION,
			Magic:   MANIFEST_MAGIC,
			Created: time.Now().Format(time.RFC3339),
		},
		RunID:     m.RunID,
		Query:     m.Query,
		ExportDir: m.ExportDir,
		Started:   m.Started.Format(time.RFC3339),
		Duration:  m.Duration.Seconds(),
		Total:     m.Total,
		Success:   m.Success,
		Failed:    m.Failed,
		Entries:   entries,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("manifest write error: %w", err)
	}
	return nil
}

// Save writes the manifest to path. The file is written to a temporary name
// first and renamed, so readers never observe a partial manifest.
func (m *Manifest) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("manifest write error: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("manifest write error: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("manifest write error: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("manifest write error: %w", err)
	}
	return nil
}

// Read decodes a manifest previously produced by Write.
func Read(r io.Reader) (*Manifest, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	var doc jsonManifest
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := doc.Header.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest header: %w", err)
	}

	started, err := time.Parse(time.RFC3339, doc.Started)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start time: %w", err)
	}

	m := &Manifest{
		RunID:     doc.RunID,
		Query:     doc.Query,
		ExportDir: doc.ExportDir,
		Started:   started,
		Duration:  time.Duration(doc.Duration * float64(time.Second)),
		Total:     doc.Total,
		Success:   doc.Success,
		Failed:    doc.Failed,
		Entries:   make([]Entry, 0, len(doc.Entries)),
	}
	for _, e := range doc.Entries {
		m.Entries = append(m.Entries, Entry(e))
	}
	return m, nil
}

// Load reads the manifest stored at path.
func Load(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file read error: %w", err)
	}
	defer file.Close()
	return Read(file)
}
