package salesforce_files_exporter

import (
	"context"
	"errors"
	"fmt"

	sfapi "github.com/isseis/go-salesforce-files-exporter/salesforce_api"
)

// SessionInterface abstracts Salesforce session operations for export and testability.
// Implementations must be safe for concurrent use by DownloadVersionData callers.
type SessionInterface interface {
	// Query runs a SOQL query and returns its first page.
	Query(ctx context.Context, soql string) (*sfapi.QueryResponse, error)

	// QueryMore returns the page addressed by the nextRecordsUrl of the previous page.
	QueryMore(ctx context.Context, nextRecordsURL string) (*sfapi.QueryResponse, error)

	// DownloadVersionData fetches the binary content of a ContentVersion.
	DownloadVersionData(ctx context.Context, versionID sfapi.ContentVersionID) (*sfapi.DownloadResponse, error)
}

// logoutSession is implemented by sessions that hold a server-side login.
type logoutSession interface {
	Logout(ctx context.Context) error
}

// errEmptyResponse is reported when the session returns neither a page nor an error.
var errEmptyResponse = errors.New("empty response")

// maxQueryPages guards against a server that never reports done.
const maxQueryPages = 100000

// queryAll retrieves every row of soql by following nextRecordsUrl, preserving server order.
func queryAll(ctx context.Context, s SessionInterface, soql string) ([]ExportRecord, error) {
	resp, err := s.Query(ctx, soql)
	if err != nil {
		return nil, &QueryError{Op: "query", Err: err}
	}
	if resp == nil {
		return nil, &QueryError{Op: "query", Err: errEmptyResponse}
	}

	var records []ExportRecord
	for page := 1; ; page++ {
		for _, row := range resp.Records {
			records = append(records, newExportRecord(row))
		}
		if resp.Done || resp.NextRecordsURL == "" {
			break
		}
		if page >= maxQueryPages {
			return nil, &QueryError{Op: "queryMore", Err: fmt.Errorf("gave up after %d pages", page)}
		}
		next := resp.NextRecordsURL
		if resp, err = s.QueryMore(ctx, next); err != nil {
			return nil, &QueryError{Op: fmt.Sprintf("queryMore page %d", page+1), Err: err}
		}
		if resp == nil {
			return nil, &QueryError{Op: fmt.Sprintf("queryMore page %d", page+1), Err: errEmptyResponse}
		}
	}
	return records, nil
}
