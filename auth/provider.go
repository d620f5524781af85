// Package auth supplies bearer-token providers for the PropSight API client.
package auth

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// Credentials holds a mutable bearer token shared by every call issued after
// it is set. The owner of the login/logout lifecycle keeps it in sync:
// SetToken on login, ClearToken on logout. Safe for concurrent use.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// NewCredentials returns an empty credential holder.
func NewCredentials() *Credentials {
	return &Credentials{}
}

// SetToken replaces the current bearer token.
func (c *Credentials) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the current token; subsequent calls go out anonymous.
func (c *Credentials) ClearToken() {
	c.SetToken("")
}

// Token implements apiclient.TokenProvider. It never fails.
func (c *Credentials) Token(context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, nil
}

// StaticToken is a fixed token, handy for API-key style access from CLIs.
type StaticToken string

// Token implements apiclient.TokenProvider.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// OAuth2Provider adapts an oauth2.TokenSource, letting a session-aware token
// source (with its own refresh handling) feed the client.
type OAuth2Provider struct {
	Source oauth2.TokenSource
}

// Token implements apiclient.TokenProvider.
func (p OAuth2Provider) Token(context.Context) (string, error) {
	if p.Source == nil {
		return "", nil
	}
	tok, err := p.Source.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
