package salesforce_api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// SalesforceSession represents an authenticated connection to a Salesforce org.
// A logged in session is safe for concurrent use by multiple goroutines.
type SalesforceSession struct {
	username   string       // Username for login
	password   string       // Password (with security token appended when required)
	loginURL   *url.URL     // Login endpoint, e.g. https://login.salesforce.com
	apiVersion string       // API version without the leading "v", e.g. "59.0"
	httpClient *http.Client // HTTP client shared by all requests

	mu       sync.RWMutex
	sid      SessionID // Session ID (set after login)
	userInfo UserInfo  // Set after login
}

// SessionOption configures optional parameters of a SalesforceSession.
type SessionOption func(*SalesforceSession)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) SessionOption {
	return func(s *SalesforceSession) {
		s.httpClient = client
	}
}

// NewSalesforceSession creates a new session with the provided credentials.
// Parameters:
//   - username: Salesforce username
//   - password: Salesforce password
//   - loginURL: Login endpoint (e.g., "https://login.salesforce.com")
//   - apiVersion: API version such as "59.0"; DefaultAPIVersion is used when empty
//
// Returns:
//   - *SalesforceSession: A new session object (not yet logged in)
//   - error: An error of type InvalidUrlError if the URL is invalid
func NewSalesforceSession(username, password, loginURL, apiVersion string, opts ...SessionOption) (*SalesforceSession, error) {
	parsed, err := url.Parse(loginURL)
	if err != nil {
		return nil, InvalidUrlError(err.Error())
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, InvalidUrlError(loginURL)
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	s := &SalesforceSession{
		username:   username,
		password:   password,
		loginURL:   parsed,
		apiVersion: strings.TrimPrefix(apiVersion, "v"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// APIVersion returns the API version used by the session.
func (s *SalesforceSession) APIVersion() string {
	return s.apiVersion
}

// UserInfo returns the principal of the current session. It is empty before login.
func (s *SalesforceSession) UserInfo() UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userInfo
}

// credentials returns the session ID and instance URL, or ErrNotLoggedIn.
func (s *SalesforceSession) credentials() (SessionID, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sid == "" {
		return "", "", ErrNotLoggedIn
	}
	return s.sid, s.userInfo.InstanceURL, nil
}

// soapEndpoint returns the partner SOAP endpoint on the login host.
func (s *SalesforceSession) soapEndpoint() string {
	u := *s.loginURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/services/Soap/u/" + s.apiVersion
	u.RawQuery = ""
	return u.String()
}

// restURL builds a REST API URL on the instance host.
// Parameters:
//   - instanceURL: Scheme and host of the org instance
//   - path: Path below /services/data/v<version>/, or an absolute path starting with /services/
//   - params: Query parameters to include in the URL
func (s *SalesforceSession) restURL(instanceURL, path string, params map[string]string) (string, error) {
	base, err := url.Parse(instanceURL)
	if err != nil {
		return "", InvalidUrlError(err.Error())
	}
	if !strings.HasPrefix(path, "/services/") {
		path = fmt.Sprintf("/services/data/v%s/%s", s.apiVersion, strings.TrimPrefix(path, "/"))
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", InvalidUrlError(err.Error())
	}
	reqURL := base.ResolveReference(ref)
	if len(params) > 0 {
		query := reqURL.Query()
		for param, value := range params {
			query.Set(param, value)
		}
		reqURL.RawQuery = query.Encode()
	}
	return reqURL.String(), nil
}

// soapCall posts a SOAP envelope and returns the raw response body.
// Faults come back with HTTP 500, so the body is returned for any status.
func (s *SalesforceSession) soapCall(ctx context.Context, endpoint, action string, envelope []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, 0, HttpError{Err: err}
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("SOAPAction", action)
	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, HttpError{Err: err}
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, HttpError{Err: err}
	}
	return body, res.StatusCode, nil
}

// restGet sends an authenticated GET request to the REST API and returns the response body.
// Parameters:
//   - path: See restURL
//   - params: Query parameters
//   - errorContext: Context information for error messages
//
// Returns:
//   - []byte: Raw response body
//   - error: ErrNotLoggedIn, HttpError or SalesforceError
func (s *SalesforceSession) restGet(ctx context.Context, path string, params map[string]string, errorContext string) ([]byte, error) {
	sid, instanceURL, err := s.credentials()
	if err != nil {
		return nil, err
	}
	reqURL, err := s.restURL(instanceURL, path, params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, HttpError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+string(sid))
	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, HttpError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, HttpError{Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, restFailure(errorContext, res.StatusCode, body)
	}
	return body, nil
}

// restFailure converts a non-2xx REST response into a SalesforceError.
func restFailure(errorContext string, status int, body []byte) error {
	var errs []restError
	if err := json.Unmarshal(body, &errs); err == nil && len(errs) > 0 {
		return SalesforceError(fmt.Sprintf("%s failed: %s [code=%s, status=%d]",
			errorContext, errs[0].Message, errs[0].ErrorCode, status))
	}
	return SalesforceError(fmt.Sprintf("%s failed: [status=%d]", errorContext, status))
}
