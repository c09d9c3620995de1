package salesforce_files_exporter

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind categorizes a per-record failure.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"    // Fetching the file from Salesforce failed
	KindFilesystem ErrorKind = "filesystem" // Reserving or writing the local file failed
	KindCanceled   ErrorKind = "canceled"   // The run was canceled before the record completed
	KindInternal   ErrorKind = "internal"   // Unexpected failure inside the exporter
)

// kinded is implemented by errors that know their ErrorKind.
type kinded interface {
	Kind() ErrorKind
}

// ErrorKindOf returns the ErrorKind of err, or KindInternal when it carries none.
func ErrorKindOf(err error) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindInternal
}

// FetchError is returned when the content of a record could not be downloaded.
type FetchError struct {
	VersionID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.VersionID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Kind() ErrorKind {
	if errors.Is(e.Err, context.Canceled) {
		return KindCanceled
	}
	return KindNetwork
}

// ExportFileWriteError is returned when a downloaded file could not be written.
type ExportFileWriteError struct {
	Op  string
	Err error
}

func (e ExportFileWriteError) Error() string {
	return fmt.Sprintf("file write error during %s: %v", e.Op, e.Err)
}

func (e ExportFileWriteError) Unwrap() error { return e.Err }

func (e ExportFileWriteError) Kind() ErrorKind { return KindFilesystem }

// ReserveError is returned when no file name could be reserved for a record.
type ReserveError struct {
	Filename string
	Err      error
}

func (e *ReserveError) Error() string {
	return fmt.Sprintf("failed to reserve file name %s: %v", e.Filename, e.Err)
}

func (e *ReserveError) Unwrap() error { return e.Err }

func (e *ReserveError) Kind() ErrorKind { return KindFilesystem }

// PanicError wraps a panic recovered while processing a record.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while processing record: %v", e.Value)
}

func (e *PanicError) Kind() ErrorKind { return KindInternal }

// QueryError is returned when the record set could not be retrieved. It is fatal for the run.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed during %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ExportDirError is returned when the export directory could not be prepared. It is fatal for the run.
type ExportDirError struct {
	Op  string
	Err error
}

func (e *ExportDirError) Error() string {
	return fmt.Sprintf("export directory %s failed: %v", e.Op, e.Err)
}

func (e *ExportDirError) Unwrap() error { return e.Err }

// SkippedError is recorded for records that were never started because the run was stopped.
type SkippedError struct {
	VersionID string
	Err       error
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped %s: %v", e.VersionID, e.Err)
}

func (e *SkippedError) Unwrap() error { return e.Err }

func (e *SkippedError) Kind() ErrorKind { return KindCanceled }
