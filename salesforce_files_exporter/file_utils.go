package salesforce_files_exporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	dirPerm  os.FileMode = 0755
	filePerm os.FileMode = 0644

	// maxBaseNameBytes keeps names, suffix and extension below the common 255 byte limit.
	maxBaseNameBytes = 200

	// maxUniqueAttempts bounds the _<n> suffix search.
	maxUniqueAttempts = 10000

	untitledName = "untitled"
)

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// EnsureDirectoryExists creates dir and its parents if they are missing.
func EnsureDirectoryExists(fs FileSystemOperations, dir string) error {
	return fs.MkdirAll(dir, dirPerm)
}

// SanitizeFilename makes a display title safe to use as a file name:
// reserved characters become '_', runs of whitespace become a single '_'.
// Titles that sanitize to nothing are named "untitled".
func SanitizeFilename(title string) string {
	name := strings.TrimSpace(title)
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = whitespaceRun.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return untitledName
	}
	return truncateUTF8(name, maxBaseNameBytes)
}

// sanitizeExtension strips leading dots and reserved characters from an extension hint.
func sanitizeExtension(ext string) string {
	ext = strings.TrimLeft(strings.TrimSpace(ext), ".")
	ext = invalidFilenameChars.ReplaceAllString(ext, "")
	ext = whitespaceRun.ReplaceAllString(ext, "")
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

// truncateUTF8 shortens s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// targetFilename returns the preferred file name of a record before collision handling.
func targetFilename(rec ExportRecord) string {
	return SanitizeFilename(rec.Title) + "." + sanitizeExtension(rec.Extension)
}

// uniqueCandidate returns the n-th candidate for filename: the name itself for n == 0,
// otherwise base_<n>.ext.
func uniqueCandidate(filename string, n int) string {
	if n == 0 {
		return filename
	}
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// ReserveUniqueFilename claims the first free name among filename, base_1.ext, base_2.ext, ...
// in dir by atomically creating an empty file. The caller owns the returned name and must
// fill or remove it.
func ReserveUniqueFilename(fs FileSystemOperations, dir, filename string) (string, error) {
	for n := 0; n < maxUniqueAttempts; n++ {
		candidate := uniqueCandidate(filename, n)
		err := fs.CreateExclusive(filepath.Join(dir, candidate), filePerm)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", &ReserveError{Filename: candidate, Err: err}
		}
	}
	return "", &ReserveError{
		Filename: filename,
		Err:      fmt.Errorf("no free name after %d attempts", maxUniqueAttempts),
	}
}
