package salesforce_api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuth tests the login and logout functionality against the mock server.
func TestAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		ResetMockLogin()
		s := newMockSession(t, mockUser, mockPass)
		require.NoError(t, s.Login(ctx))
		assert.NoError(t, credentialsErr(s))
		assert.Equal(t, SessionID(mockSessionID), s.sid)

		info := s.UserInfo()
		assert.Equal(t, "005Tt00000MockUAA", info.UserID)
		assert.Equal(t, "00DTt000000mockMAA", info.OrganizationID)
		assert.Equal(t, "mock-user@example.com", info.UserName)
		assert.Equal(t, mockServerURL, info.InstanceURL)
	})

	t.Run("Logout", func(t *testing.T) {
		ResetMockLogin()
		s := newMockSession(t, mockUser, mockPass)
		require.NoError(t, s.Login(ctx))
		require.NoError(t, s.Logout(ctx))
		assert.ErrorIs(t, credentialsErr(s), ErrNotLoggedIn)
		assert.Empty(t, s.sid)
		assert.Empty(t, s.UserInfo().InstanceURL)
	})

	t.Run("Logout without login", func(t *testing.T) {
		s := newMockSession(t, mockUser, mockPass)
		assert.ErrorIs(t, s.Logout(ctx), ErrNotLoggedIn)
	})

	t.Run("Invalid credentials", func(t *testing.T) {
		ResetMockLogin()
		s := newMockSession(t, mockUser, "wrong")
		err := s.Login(ctx)
		require.Error(t, err)
		var sfErr SalesforceError
		require.True(t, errors.As(err, &sfErr))
		assert.Contains(t, err.Error(), "INVALID_LOGIN")
		assert.ErrorIs(t, credentialsErr(s), ErrNotLoggedIn)
	})

	t.Run("Credentials are XML escaped", func(t *testing.T) {
		body := string(loginRequestBody("a<b", "p&ss"))
		assert.Contains(t, body, "<n1:username>a&lt;b</n1:username>")
		assert.Contains(t, body, "<n1:password>p&amp;ss</n1:password>")
	})
}

func TestLoginWithTimeout(t *testing.T) {
	t.Run("Times out", func(t *testing.T) {
		s := newMockSession(t, mockSlowUser, mockPass)
		start := time.Now()
		err := s.LoginWithTimeout(context.Background(), 100*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLoginTimeout)
		assert.Less(t, time.Since(start), 3*time.Second)
		assert.ErrorIs(t, credentialsErr(s), ErrNotLoggedIn)
	})

	t.Run("Succeeds within timeout", func(t *testing.T) {
		ResetMockLogin()
		s := newMockSession(t, mockUser, mockPass)
		require.NoError(t, s.LoginWithTimeout(context.Background(), 5*time.Second))
		assert.NoError(t, credentialsErr(s))
	})

	t.Run("Parent cancellation is not a timeout", func(t *testing.T) {
		s := newMockSession(t, mockSlowUser, mockPass)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.LoginWithTimeout(ctx, time.Second)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrLoginTimeout))
	})
}
