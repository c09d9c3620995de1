package salesforce_files_exporter

import (
	sfapi "github.com/isseis/go-salesforce-files-exporter/salesforce_api"
)

// DefaultExtension is used when a record carries no file extension.
const DefaultExtension = "pdf"

// ExportRecord describes one file to export.
type ExportRecord struct {
	VersionID sfapi.ContentVersionID
	Title     string
	Extension string
}

// newExportRecord creates a new ExportRecord from a query row.
func newExportRecord(row sfapi.ContentDocumentLinkRecord) ExportRecord {
	doc := row.ContentDocument
	ext := doc.FileExtension
	if ext == "" {
		ext = DefaultExtension
	}
	return ExportRecord{
		VersionID: doc.LatestPublishedVersionID,
		Title:     doc.Title,
		Extension: ext,
	}
}
