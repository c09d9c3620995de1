package salesforce_api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSalesforceSession(t *testing.T) {
	tests := []struct {
		name        string
		loginURL    string
		apiVersion  string
		wantVersion string
		wantErr     bool
	}{
		{"valid URL", "https://login.salesforce.com", "59.0", "59.0", false},
		{"version with v prefix", "https://test.salesforce.com", "v60.0", "60.0", false},
		{"default version", "https://login.salesforce.com", "", DefaultAPIVersion, false},
		{"missing scheme", "login.salesforce.com", "59.0", "", true},
		{"unparsable URL", "http://[::1", "59.0", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSalesforceSession("u", "p", tt.loginURL, tt.apiVersion)
			if tt.wantErr {
				var urlErr InvalidUrlError
				assert.True(t, errors.As(err, &urlErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, s.APIVersion())
			assert.ErrorIs(t, credentialsErr(s), ErrNotLoggedIn)
		})
	}
}

func TestSoapEndpoint(t *testing.T) {
	s, err := NewSalesforceSession("u", "p", "https://login.salesforce.com/", "59.0")
	require.NoError(t, err)
	assert.Equal(t, "https://login.salesforce.com/services/Soap/u/59.0", s.soapEndpoint())
}

func TestRestURL(t *testing.T) {
	s, err := NewSalesforceSession("u", "p", "https://login.salesforce.com", "59.0")
	require.NoError(t, err)

	got, err := s.restURL("https://na1.my.salesforce.com", "query", map[string]string{"q": "SELECT Id FROM Account"})
	require.NoError(t, err)
	assert.Equal(t, "https://na1.my.salesforce.com/services/data/v59.0/query?q=SELECT+Id+FROM+Account", got)

	got, err = s.restURL("https://na1.my.salesforce.com", "/services/data/v59.0/query/01g-2000", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://na1.my.salesforce.com/services/data/v59.0/query/01g-2000", got)
}

func TestRestFailure(t *testing.T) {
	err := restFailure("Query", 400, []byte(`[{"message":"unexpected token","errorCode":"MALFORMED_QUERY"}]`))
	assert.EqualError(t, err, `salesforce error "Query failed: unexpected token [code=MALFORMED_QUERY, status=400]"`)

	err = restFailure("Download", 502, []byte(`<html>bad gateway</html>`))
	assert.EqualError(t, err, `salesforce error "Download failed: [status=502]"`)
}

func TestRequestsBeforeLogin(t *testing.T) {
	s := newMockSession(t, mockUser, mockPass)
	ctx := context.Background()

	_, err := s.Query(ctx, "SELECT Id FROM ContentDocumentLink")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = s.QueryMore(ctx, mockNextRecords)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = s.DownloadVersionData(ctx, "068Tt0000001")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
