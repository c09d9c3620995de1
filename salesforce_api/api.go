package salesforce_api

// ContentVersionID identifies a ContentVersion record, whose VersionData holds the file body.
type ContentVersionID string

// SessionID is the token returned by a successful login and sent as a bearer token.
type SessionID string

// restError is one element of the error array returned by the REST API, e.g.
// [{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]
type restError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// UserInfo describes the authenticated principal.
type UserInfo struct {
	UserID         string
	OrganizationID string
	UserName       string
	InstanceURL    string
}
