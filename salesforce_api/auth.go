package salesforce_api

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// soapFault is the fault element returned by the SOAP API on failure.
type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// loginResult represents the data specific to a login response.
type loginResult struct {
	ServerURL       string `xml:"serverUrl"`
	SessionID       string `xml:"sessionId"`
	UserID          string `xml:"userId"`
	PasswordExpired bool   `xml:"passwordExpired"`
	UserInfo        struct {
		OrganizationID string `xml:"organizationId"`
		UserName       string `xml:"userName"`
	} `xml:"userInfo"`
}

// loginEnvelope represents the SOAP envelope returned by the login call.
type loginEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		LoginResponse *struct {
			Result loginResult `xml:"result"`
		} `xml:"loginResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

// logoutEnvelope represents the SOAP envelope returned by the logout call.
type logoutEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

// escapeXML returns s escaped for use as XML character data.
func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func loginRequestBody(username, password string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<env:Envelope xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
<env:Body><n1:login xmlns:n1="%s"><n1:username>%s</n1:username><n1:password>%s</n1:password></n1:login></env:Body>
</env:Envelope>`, partnerNamespace, escapeXML(username), escapeXML(password)))
}

func logoutRequestBody(sid SessionID) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
<env:Header><SessionHeader xmlns="%[1]s"><sessionId>%[2]s</sessionId></SessionHeader></env:Header>
<env:Body><logout xmlns="%[1]s"/></env:Body>
</env:Envelope>`, partnerNamespace, escapeXML(string(sid))))
}

// Login authenticates with the SOAP partner API using the session credentials.
// This stores the session ID and instance URL for subsequent requests.
// Returns:
//   - error: HttpError if there was a network or request error
//   - error: SalesforceError if authentication failed or the response was invalid
func (s *SalesforceSession) Login(ctx context.Context) error {
	body, _, err := s.soapCall(ctx, s.soapEndpoint(), "login", loginRequestBody(s.username, s.password))
	if err != nil {
		return err
	}

	var resp loginEnvelope
	if err := xml.Unmarshal(body, &resp); err != nil {
		return SalesforceError(err.Error())
	}
	if fault := resp.Body.Fault; fault != nil {
		return SalesforceError(fmt.Sprintf("Login failed: %s [code=%s]", fault.FaultString, fault.FaultCode))
	}
	if resp.Body.LoginResponse == nil {
		return SalesforceError("Invalid or missing 'loginResponse' element in response")
	}

	result := resp.Body.LoginResponse.Result
	if result.SessionID == "" {
		return SalesforceError("Invalid or missing 'sessionId' field in response")
	}
	if result.PasswordExpired {
		return SalesforceError("Login failed: password expired")
	}
	server, err := url.Parse(result.ServerURL)
	if err != nil || server.Host == "" {
		return SalesforceError(fmt.Sprintf("Invalid 'serverUrl' field in response: %q", result.ServerURL))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sid = SessionID(result.SessionID)
	s.userInfo = UserInfo{
		UserID:         result.UserID,
		OrganizationID: result.UserInfo.OrganizationID,
		UserName:       result.UserInfo.UserName,
		InstanceURL:    server.Scheme + "://" + server.Host,
	}
	return nil
}

// LoginWithTimeout calls Login and gives up after timeout.
// A login that runs out of time returns an error wrapping ErrLoginTimeout.
func (s *SalesforceSession) LoginWithTimeout(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	loginCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.Login(loginCtx)
	if err != nil && errors.Is(loginCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s: check your network and credentials", ErrLoginTimeout, timeout)
	}
	return err
}

// Logout invalidates the current session on the server and clears the session ID.
// Returns:
//   - error: ErrNotLoggedIn if there is no session
//   - error: HttpError if there was a network or request error
//   - error: SalesforceError if the logout failed or the response was invalid
func (s *SalesforceSession) Logout(ctx context.Context) error {
	sid, instanceURL, err := s.credentials()
	if err != nil {
		return err
	}
	endpoint, err := s.restURL(instanceURL, "/services/Soap/u/"+s.apiVersion, nil)
	if err != nil {
		return err
	}
	body, _, err := s.soapCall(ctx, endpoint, "logout", logoutRequestBody(sid))
	if err != nil {
		return err
	}

	var resp logoutEnvelope
	if err := xml.Unmarshal(body, &resp); err != nil {
		return SalesforceError(err.Error())
	}
	if fault := resp.Body.Fault; fault != nil {
		return SalesforceError(fmt.Sprintf("Logout failed: %s [code=%s]", fault.FaultString, fault.FaultCode))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sid = ""
	s.userInfo = UserInfo{}
	return nil
}
