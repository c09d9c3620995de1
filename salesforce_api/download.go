package salesforce_api

import (
	"context"
	"fmt"
	"net/url"
)

// DownloadResponse holds the binary body of a ContentVersion.
type DownloadResponse struct {
	Content []byte
}

// DownloadVersionData fetches the file body of a ContentVersion.
// Parameters:
//   - versionID: The ContentVersion identifier
//
// Returns:
//   - *DownloadResponse: The raw bytes of the file
//   - error: ErrNotLoggedIn, HttpError or SalesforceError (e.g. NOT_FOUND for an unknown id)
func (s *SalesforceSession) DownloadVersionData(ctx context.Context, versionID ContentVersionID) (*DownloadResponse, error) {
	if versionID == "" {
		return nil, SalesforceError("Download failed: empty ContentVersion id")
	}
	path := fmt.Sprintf("sobjects/ContentVersion/%s/VersionData", url.PathEscape(string(versionID)))
	body, err := s.restGet(ctx, path, nil, "Download "+string(versionID))
	if err != nil {
		return nil, err
	}
	return &DownloadResponse{Content: body}, nil
}
