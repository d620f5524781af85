package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCredentialsSetAndClear(t *testing.T) {
	creds := NewCredentials()
	ctx := context.Background()

	token, err := creds.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, token)

	creds.SetToken("session-abc")
	token, _ = creds.Token(ctx)
	require.Equal(t, "session-abc", token)

	creds.ClearToken()
	token, _ = creds.Token(ctx)
	require.Empty(t, token)
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("api-key-123").Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "api-key-123", token)
}

func TestOAuth2Provider(t *testing.T) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "oauth-xyz"})
	token, err := OAuth2Provider{Source: src}.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "oauth-xyz", token)

	token, err = OAuth2Provider{}.Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)
}
