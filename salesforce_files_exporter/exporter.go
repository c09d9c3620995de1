package salesforce_files_exporter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	em "github.com/isseis/go-salesforce-files-exporter/export_manifest"
	"github.com/isseis/go-salesforce-files-exporter/filelock"
)

// Export runs soql, then downloads every file it references into a new directory
// <baseDir>/<YYYY-MM-DD_HH-MM-SS>. The directory is created before the query runs.
//
// An error is returned only for failures that abort the whole run: preparing the export
// directory or retrieving the complete record set. Failures of individual files are
// reported in ExportResult.Errors.
func (e *Exporter) Export(ctx context.Context, soql string) (ExportResult, error) {
	log := e.getLogger()
	started := e.now()
	result := ExportResult{RunID: e.runID}

	if err := EnsureDirectoryExists(e.fs, e.baseDir); err != nil {
		return result, &ExportDirError{Op: "create " + e.baseDir, Err: err}
	}
	exportDir := filepath.Join(e.baseDir, FormatTimestamp(started))
	result.ExportDir = exportDir

	// Two runs started within the same second would share exportDir.
	unlock, err := filelock.TryLock(exportDir, e.runID)
	if err != nil {
		if errors.Is(err, filelock.ErrLockHeld) {
			if info, infoErr := filelock.ReadLockInfo(exportDir); infoErr == nil {
				err = fmt.Errorf("run %s (pid %d on %s) is already exporting to %s: %w", info.Owner, info.PID, info.Hostname, exportDir, err)
			} else {
				err = fmt.Errorf("another process is already exporting to %s: %w", exportDir, err)
			}
		}
		return result, &ExportDirError{Op: "lock " + exportDir, Err: err}
	}
	defer unlock()

	if err := e.fs.MkdirAll(exportDir, dirPerm); err != nil {
		return result, &ExportDirError{Op: "create " + exportDir, Err: err}
	}
	log.Info("Export started", "run_id", e.runID, "export_dir", exportDir, "started", FormatDisplayDate(started), "batch_size", e.batchSize)

	records, err := queryAll(ctx, e.session, soql)
	if err != nil {
		log.Error("Failed to retrieve records", "run_id", e.runID, "error", err)
		return result, err
	}
	log.Info("Found files to export", "run_id", e.runID, "count", len(records))

	if len(records) > 0 {
		result = e.DownloadRecords(ctx, records, exportDir)
	} else {
		log.Info("No files to export", "run_id", e.runID)
	}
	result.Duration = e.now().Sub(started)

	if e.writeManifest {
		path := em.PathFor(exportDir)
		if err := newManifest(soql, started, result).Save(path); err != nil {
			log.Warn("Failed to write manifest", "run_id", e.runID, "path", path, "error", err)
		} else {
			log.Debug("Manifest written", "run_id", e.runID, "path", path)
		}
	}

	log.Info("Export completed", "run_id", e.runID, "result", result.String(), "duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// newManifest converts result into a manifest, listing records in input order.
func newManifest(soql string, started time.Time, result ExportResult) *em.Manifest {
	m := &em.Manifest{
		RunID:     result.RunID,
		Query:     soql,
		ExportDir: result.ExportDir,
		Started:   started,
		Duration:  result.Duration,
		Total:     result.Total,
		Success:   result.Success,
		Failed:    result.Failed,
	}
	for _, f := range result.Files {
		m.Entries = append(m.Entries, em.Entry{
			VersionID: string(f.Record.VersionID),
			Title:     f.Record.Title,
			Extension: f.Record.Extension,
			Status:    em.StatusDownloaded,
			Filename:  f.Filename,
			Bytes:     f.Bytes,
		})
	}
	for _, fe := range result.Errors {
		m.Entries = append(m.Entries, em.Entry{
			VersionID: string(fe.Record.VersionID),
			Title:     fe.Record.Title,
			Extension: fe.Record.Extension,
			Status:    em.StatusFailed,
			Error:     fe.Err.Error(),
			ErrorKind: string(fe.Kind()),
		})
	}
	return m
}
