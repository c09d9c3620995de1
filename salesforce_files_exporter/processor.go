package salesforce_files_exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// processRecord downloads one record into the reserved file exportDir/filename.
// It never panics and never returns an outcome without a record; on failure the
// reservation is removed so no empty placeholder is left behind.
func (e *Exporter) processRecord(ctx context.Context, rec ExportRecord, exportDir, filename string) (outcome DownloadOutcome) {
	log := e.getLogger()
	path := filepath.Join(exportDir, filename)
	outcome.Record = rec

	defer func() {
		if r := recover(); r != nil {
			outcome = DownloadOutcome{Record: rec, Err: &PanicError{Value: r}}
		}
		if outcome.Err != nil {
			log.Error("Failed to export file", "run_id", e.runID, "version_id", rec.VersionID, "title", rec.Title,
				"kind", ErrorKindOf(outcome.Err), "error", outcome.Err)
			e.releaseReservation(path)
		}
	}()

	fetchCtx := ctx
	if e.downloadTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.downloadTimeout)
		defer cancel()
	}

	log.Debug("Downloading file", "run_id", e.runID, "version_id", rec.VersionID, "filename", filename)
	resp, err := e.session.DownloadVersionData(fetchCtx, rec.VersionID)
	if err != nil {
		// A download cut off by the run's cancellation counts as canceled whatever the transport reported.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		outcome.Err = &FetchError{VersionID: string(rec.VersionID), Err: err}
		return outcome
	}
	if resp == nil {
		outcome.Err = &FetchError{VersionID: string(rec.VersionID), Err: errEmptyResponse}
		return outcome
	}

	if err := e.fs.WriteFile(path, resp.Content, filePerm); err != nil {
		if ErrorKindOf(err) != KindFilesystem {
			err = ExportFileWriteError{Op: fmt.Sprintf("WriteFile for %s", path), Err: err}
		}
		outcome.Err = err
		return outcome
	}

	outcome.Filename = filename
	outcome.Bytes = len(resp.Content)
	log.Info("File exported successfully", "run_id", e.runID, "version_id", rec.VersionID, "path", path, "bytes", outcome.Bytes)
	return outcome
}

// releaseReservation removes a reserved file that will not be filled.
func (e *Exporter) releaseReservation(path string) {
	if err := e.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.getLogger().Warn("Failed to remove reserved file", "run_id", e.runID, "path", path, "error", err)
	}
}
