package salesforce_api

import (
	"context"
	"encoding/json"
	"fmt"
)

// ContentDocument holds the ContentDocument fields selected through a ContentDocumentLink query.
type ContentDocument struct {
	LatestPublishedVersionID ContentVersionID `json:"LatestPublishedVersionId"`
	Title                    string           `json:"Title"`
	FileType                 string           `json:"FileType"`
	FileExtension            string           `json:"FileExtension"`
}

// ContentDocumentLinkRecord is one row of a ContentDocumentLink query.
type ContentDocumentLinkRecord struct {
	ContentDocument ContentDocument `json:"ContentDocument"`
}

// jsonQueryResponse represents the raw JSON body of a query or queryMore call.
type jsonQueryResponse struct {
	TotalSize      int64                       `json:"totalSize"`
	Done           bool                        `json:"done"`
	NextRecordsURL string                      `json:"nextRecordsUrl"`
	Records        []ContentDocumentLinkRecord `json:"records"`
}

func (r *jsonQueryResponse) validate() error {
	if r.TotalSize < 0 {
		return SalesforceError(fmt.Sprintf("Invalid total size: %d", r.TotalSize))
	}
	if !r.Done && r.NextRecordsURL == "" {
		return SalesforceError("Missing 'nextRecordsUrl' in an unfinished query response")
	}
	return nil
}

// QueryResponse is one page of query results.
type QueryResponse struct {
	TotalSize      int64
	Done           bool
	NextRecordsURL string
	Records        []ContentDocumentLinkRecord
}

func (s *SalesforceSession) decodeQueryResponse(body []byte) (*QueryResponse, error) {
	var jsonResponse jsonQueryResponse
	if err := json.Unmarshal(body, &jsonResponse); err != nil {
		return nil, SalesforceError(err.Error())
	}
	if err := jsonResponse.validate(); err != nil {
		return nil, err
	}
	return &QueryResponse{
		TotalSize:      jsonResponse.TotalSize,
		Done:           jsonResponse.Done,
		NextRecordsURL: jsonResponse.NextRecordsURL,
		Records:        jsonResponse.Records,
	}, nil
}

// Query runs a SOQL query and returns the first page of results.
// Parameters:
//   - soql: The query string
//
// Returns:
//   - *QueryResponse: The first page; Done is false when QueryMore must be called with NextRecordsURL
//   - error: ErrNotLoggedIn, HttpError or SalesforceError
func (s *SalesforceSession) Query(ctx context.Context, soql string) (*QueryResponse, error) {
	body, err := s.restGet(ctx, "query", map[string]string{"q": soql}, "Query")
	if err != nil {
		return nil, err
	}
	return s.decodeQueryResponse(body)
}

// QueryMore fetches the next page of a query using the nextRecordsUrl of the previous page.
func (s *SalesforceSession) QueryMore(ctx context.Context, nextRecordsURL string) (*QueryResponse, error) {
	if nextRecordsURL == "" {
		return nil, SalesforceError("QueryMore called without nextRecordsUrl")
	}
	body, err := s.restGet(ctx, nextRecordsURL, nil, "QueryMore")
	if err != nil {
		return nil, err
	}
	return s.decodeQueryResponse(body)
}
