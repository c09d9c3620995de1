package salesforce_api

import "time"

// Default constants for the Salesforce API
const (
	// DefaultLoginURL is the production login endpoint. Sandboxes use https://test.salesforce.com.
	DefaultLoginURL = "https://login.salesforce.com"

	// DefaultAPIVersion is the REST and SOAP API version used when none is configured.
	DefaultAPIVersion = "59.0"

	// DefaultLoginTimeout bounds the time spent establishing a session.
	DefaultLoginTimeout = 30 * time.Second
)

// partnerNamespace is the XML namespace of the SOAP partner API (private to this package).
const partnerNamespace = "urn:partner.soap.sforce.com"
