package salesforce_api

import (
	"errors"
	"strconv"
)

// InvalidUrlError is returned when the login URL cannot be parsed.
type InvalidUrlError string

func (e InvalidUrlError) Error() string {
	return "invalid URL " + strconv.Quote(string(e)) + " in login_url"
}

// HttpError is returned when a request could not be sent or its body could not be read.
// Err keeps the transport error, so context cancellation stays visible to errors.Is.
type HttpError struct {
	Err error
}

func (e HttpError) Error() string {
	return "http error " + strconv.Quote(e.Err.Error())
}

func (e HttpError) Unwrap() error { return e.Err }

// SalesforceError is returned when Salesforce answered but reported a failure.
type SalesforceError string

func (e SalesforceError) Error() string {
	return "salesforce error " + strconv.Quote(string(e))
}

// ErrNotLoggedIn is returned by API calls made before a successful Login.
var ErrNotLoggedIn = errors.New("salesforce session is not logged in")

// ErrLoginTimeout is returned by LoginWithTimeout when the login did not finish in time.
var ErrLoginTimeout = errors.New("salesforce connection timeout")
