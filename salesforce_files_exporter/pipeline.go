package salesforce_files_exporter

import (
	"context"
	"sync"
)

func clampBatchSize(size int) int {
	if size < 1 {
		return 1
	}
	return size
}

// Batches partitions records into consecutive slices of at most size records,
// preserving order. A size below 1 is treated as 1. Empty input yields no batches.
func Batches(records []ExportRecord, size int) [][]ExportRecord {
	size = clampBatchSize(size)
	batches := make([][]ExportRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

// DownloadRecords downloads records into exportDir, one batch at a time.
// Downloads within a batch run concurrently and the next batch starts only after every
// download of the current batch has finished, successfully or not. A failing record never
// affects its siblings. The returned result accounts for every record exactly once, in input order.
//
// When ctx is done between batches, the remaining records are reported as failed without
// being attempted.
func (e *Exporter) DownloadRecords(ctx context.Context, records []ExportRecord, exportDir string) ExportResult {
	log := e.getLogger()
	start := e.now()
	result := ExportResult{
		RunID:     e.runID,
		ExportDir: exportDir,
		Total:     len(records),
	}
	if len(records) == 0 {
		return result
	}

	batches := Batches(records, e.batchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			log.Warn("Export stopped before all batches were processed", "run_id", e.runID, "remaining_batches", len(batches)-i, "error", err)
			for _, rest := range batches[i:] {
				for _, rec := range rest {
					result.add(DownloadOutcome{Record: rec, Err: &SkippedError{VersionID: string(rec.VersionID), Err: err}})
				}
			}
			break
		}

		log.Info("Processing batch", "run_id", e.runID, "batch", i+1, "of", len(batches), "size", len(batch))
		var ok, failed int
		for _, outcome := range e.runBatch(ctx, batch, exportDir) {
			if outcome.Succeeded() {
				ok++
			} else {
				failed++
			}
			result.add(outcome)
		}
		result.Batches++
		log.Info("Batch completed", "run_id", e.runID, "batch", i+1, "success", ok, "failed", failed)
	}
	result.Duration = e.now().Sub(start)
	return result
}

// runBatch processes one batch and returns its outcomes in batch order.
// Target names are reserved sequentially before any download starts, so the names
// assigned never depend on the order in which concurrent downloads finish.
func (e *Exporter) runBatch(ctx context.Context, batch []ExportRecord, exportDir string) []DownloadOutcome {
	outcomes := make([]DownloadOutcome, len(batch))
	targets := make([]string, len(batch))
	for i, rec := range batch {
		name, err := ReserveUniqueFilename(e.fs, exportDir, targetFilename(rec))
		if err != nil {
			e.getLogger().Error("Failed to reserve file name", "run_id", e.runID, "version_id", rec.VersionID, "title", rec.Title, "error", err)
			outcomes[i] = DownloadOutcome{Record: rec, Err: err}
			continue
		}
		targets[i] = name
	}

	var wg sync.WaitGroup
	for i, rec := range batch {
		if targets[i] == "" {
			continue
		}
		wg.Add(1)
		go func(i int, rec ExportRecord) {
			defer wg.Done()
			outcomes[i] = e.processRecord(ctx, rec, exportDir, targets[i])
		}(i, rec)
	}
	wg.Wait()
	return outcomes
}
