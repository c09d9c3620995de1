package salesforce_files_exporter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sfapi "github.com/isseis/go-salesforce-files-exporter/salesforce_api"
)

func TestQueryAll_FollowsPages(t *testing.T) {
	records := makeRecords(7)
	rows := makeRows(records)
	var cursors []string
	session := &MockSalesforceSession{
		QueryFunc: func(ctx context.Context, soql string) (*sfapi.QueryResponse, error) {
			return &sfapi.QueryResponse{TotalSize: 7, NextRecordsURL: "/next/1", Records: rows[0:3]}, nil
		},
		QueryMoreFunc: func(ctx context.Context, next string) (*sfapi.QueryResponse, error) {
			cursors = append(cursors, next)
			switch next {
			case "/next/1":
				return &sfapi.QueryResponse{TotalSize: 7, NextRecordsURL: "/next/2", Records: rows[3:6]}, nil
			case "/next/2":
				return &sfapi.QueryResponse{TotalSize: 7, Done: true, Records: rows[6:]}, nil
			}
			return nil, fmt.Errorf("unexpected cursor %s", next)
		},
	}

	got, err := queryAll(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, []string{"/next/1", "/next/2"}, cursors)
}

func TestQueryAll_SinglePage(t *testing.T) {
	records := makeRecords(2)
	session := &MockSalesforceSession{
		QueryFunc: func(ctx context.Context, soql string) (*sfapi.QueryResponse, error) {
			assert.Equal(t, testQuery, soql)
			return &sfapi.QueryResponse{TotalSize: 2, Done: true, Records: makeRows(records)}, nil
		},
	}
	got, err := queryAll(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestQueryAll_DefaultsExtension(t *testing.T) {
	session := &MockSalesforceSession{
		QueryFunc: func(ctx context.Context, soql string) (*sfapi.QueryResponse, error) {
			return &sfapi.QueryResponse{Done: true, Records: []sfapi.ContentDocumentLinkRecord{
				{ContentDocument: sfapi.ContentDocument{LatestPublishedVersionID: "068X", Title: "Checklist"}},
			}}, nil
		},
	}
	got, err := queryAll(context.Background(), session, testQuery)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, DefaultExtension, got[0].Extension)
}

func TestQueryAll_Errors(t *testing.T) {
	cause := errors.New("boom")
	session := &MockSalesforceSession{
		QueryFunc: func(ctx context.Context, soql string) (*sfapi.QueryResponse, error) {
			return nil, cause
		},
	}
	_, err := queryAll(context.Background(), session, testQuery)
	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "query", queryErr.Op)
	assert.ErrorIs(t, err, cause)
}

func TestQueryAll_EmptyResponse(t *testing.T) {
	tests := []struct {
		name    string
		session *MockSalesforceSession
		wantOp  string
	}{
		{
			name: "first page",
			session: &MockSalesforceSession{
				QueryFunc: func(ctx context.Context, soql string) (*sfapi.QueryResponse, error) {
					return nil, nil
				},
			},
			wantOp: "query",
		},
		{
			name: "next page",
			session: &MockSalesforceSession{
				QueryFunc: func(ctx context.Context, soql string) (*sfapi.QueryResponse, error) {
					return &sfapi.QueryResponse{NextRecordsURL: "/services/data/v59.0/query/01g-2"}, nil
				},
				QueryMoreFunc: func(ctx context.Context, next string) (*sfapi.QueryResponse, error) {
					return nil, nil
				},
			},
			wantOp: "queryMore page 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := queryAll(context.Background(), tt.session, testQuery)
			var queryErr *QueryError
			require.ErrorAs(t, err, &queryErr)
			assert.Equal(t, tt.wantOp, queryErr.Op)
			assert.ErrorIs(t, err, errEmptyResponse)
		})
	}
}
