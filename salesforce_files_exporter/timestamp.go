package salesforce_files_exporter

import "time"

// exportDirLayout names export directories, e.g. 2025-07-01_14-03-59.
const exportDirLayout = "2006-01-02_15-04-05"

// FormatTimestamp formats t as YYYY-MM-DD_HH-MM-SS in t's location, for use in directory names.
func FormatTimestamp(t time.Time) string {
	return t.Format(exportDirLayout)
}

// FormatDisplayDate formats t for display in logs.
func FormatDisplayDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
