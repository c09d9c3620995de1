package salesforce_files_exporter

import (
	"fmt"
	"os"

	"github.com/isseis/go-salesforce-files-exporter/filelock"
)

// FileSystemOperations abstracts file system operations for the Exporter, allowing for easy mocking in tests.
// Implementations must be safe for concurrent use.
type FileSystemOperations interface {
	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error
	// CreateExclusive atomically creates an empty file. It fails with an error matching
	// os.ErrExist when the file is already present.
	CreateExclusive(path string, perm os.FileMode) error
	// WriteFile replaces the content of a file.
	WriteFile(path string, data []byte, perm os.FileMode) error
	// Remove deletes the specified file from the filesystem.
	Remove(path string) error
}

// DefaultFileSystem provides a production implementation of FileSystemOperations using the os package.
type DefaultFileSystem struct{}

// MkdirAll creates a directory and any missing parents.
func (fs *DefaultFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return ExportFileWriteError{Op: fmt.Sprintf("MkdirAll for %s", path), Err: err}
	}
	return nil
}

// CreateExclusive atomically creates an empty file using O_EXCL.
func (fs *DefaultFileSystem) CreateExclusive(path string, perm os.FileMode) error {
	f, err := filelock.CreateExclusive(path, perm)
	if err != nil {
		return err
	}
	return f.Close()
}

// WriteFile replaces the content of a file.
func (fs *DefaultFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return ExportFileWriteError{Op: fmt.Sprintf("WriteFile for %s", path), Err: err}
	}
	return nil
}

// Remove deletes the specified file from the filesystem.
func (fs *DefaultFileSystem) Remove(path string) error {
	return os.Remove(path)
}
