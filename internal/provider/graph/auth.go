package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// graphScope asks for the application permissions granted to the app
// registration. Creating drafts in another user's mailbox needs
// Mail.ReadWrite.
const graphScope = "https://graph.microsoft.com/.default"

// maxExpiryLeeway is how long before expiry a token stops being handed
// out, so a draft upload does not start on a token about to lapse.
const maxExpiryLeeway = 5 * time.Minute

// accessToken is a bearer token and the time it stops being used.
type accessToken struct {
	value     string
	expiresAt time.Time
}

func (t accessToken) usable(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt)
}

// mailboxAuth supplies bearer tokens for draft creation using the OAuth2
// client credentials flow. It is safe for concurrent use.
type mailboxAuth struct {
	mu       sync.Mutex
	current  accessToken
	endpoint string
	form     url.Values
	client   *http.Client
	now      func() time.Time
}

func newMailboxAuth(endpoint, clientID, clientSecret string, client *http.Client) *mailboxAuth {
	return &mailboxAuth{
		endpoint: endpoint,
		form: url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
			"scope":         {graphScope},
		},
		client: client,
		now:    time.Now,
	}
}

// bearer returns a token for the next draft request, fetching one when
// none is cached or the cached one is about to expire.
func (a *mailboxAuth) bearer(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.usable(a.now()) {
		return a.current.value, nil
	}
	return a.fetch(ctx)
}

// renew replaces a token the messages endpoint rejected. When a concurrent
// draft already renewed it, the newer token is returned without another
// round trip to the token endpoint.
func (a *mailboxAuth) renew(ctx context.Context, rejected string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.value != rejected && a.current.usable(a.now()) {
		return a.current.value, nil
	}
	a.current = accessToken{}
	return a.fetch(ctx)
}

// fetch requests a new token. The caller must hold a.mu.
func (a *mailboxAuth) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(a.form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", newAuthError(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	a.current = accessToken{
		value:     tr.AccessToken,
		expiresAt: a.now().Add(lifetime - min(maxExpiryLeeway, lifetime/2)),
	}
	return a.current.value, nil
}

// authError is a rejection from the token endpoint.
type authError struct {
	statusCode  int
	code        string
	description string
}

func newAuthError(status int, body []byte) *authError {
	var er tokenErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return &authError{statusCode: status, code: er.Error, description: er.Description}
	}
	return &authError{statusCode: status, description: strings.TrimSpace(string(body))}
}

func (e *authError) Error() string {
	msg := fmt.Sprintf("token endpoint rejected draft credentials (HTTP %d", e.statusCode)
	if e.code != "" {
		msg += ", " + e.code
	}
	msg += ")"
	if e.description != "" {
		msg += ": " + e.description
	}
	switch e.code {
	case "invalid_client", "unauthorized_client":
		msg += "; check GRAPH_CLIENT_ID and GRAPH_CLIENT_SECRET"
	case "invalid_request":
		msg += "; check GRAPH_TENANT_ID"
	}
	return msg
}
