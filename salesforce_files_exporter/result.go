package salesforce_files_exporter

import (
	"fmt"
	"time"
)

// DownloadOutcome is the result of processing a single record.
// Err is nil on success, in which case Filename and Bytes are set.
type DownloadOutcome struct {
	Record   ExportRecord
	Filename string
	Bytes    int
	Err      error
}

// Succeeded reports whether the record was downloaded and written.
func (o DownloadOutcome) Succeeded() bool {
	return o.Err == nil
}

// ExportedFile is a successfully written file.
type ExportedFile struct {
	Record   ExportRecord
	Filename string
	Bytes    int
}

// ExportError pairs a failed record with the reason it failed.
type ExportError struct {
	Record ExportRecord
	Err    error
}

// Kind returns the failure category.
func (e ExportError) Kind() ErrorKind {
	return ErrorKindOf(e.Err)
}

// ExportResult holds the aggregate outcome of an export run.
// Files and Errors are in the order the records were supplied.
type ExportResult struct {
	RunID     string
	ExportDir string
	Total     int // Number of records supplied
	Success   int // Number of files written
	Failed    int // Number of records that failed
	Batches   int // Number of batches processed
	Files     []ExportedFile
	Errors    []ExportError
	Duration  time.Duration
}

// String returns a string representation of the export result
func (r ExportResult) String() string {
	return fmt.Sprintf("total=%d, success=%d, failed=%d, batches=%d", r.Total, r.Success, r.Failed, r.Batches)
}

// Consistent reports whether every record is accounted for exactly once.
func (r ExportResult) Consistent() bool {
	return r.Success+r.Failed == r.Total && len(r.Files) == r.Success && len(r.Errors) == r.Failed
}

// add records one outcome.
func (r *ExportResult) add(o DownloadOutcome) {
	if o.Succeeded() {
		r.Success++
		r.Files = append(r.Files, ExportedFile{Record: o.Record, Filename: o.Filename, Bytes: o.Bytes})
		return
	}
	r.Failed++
	r.Errors = append(r.Errors, ExportError{Record: o.Record, Err: o.Err})
}
