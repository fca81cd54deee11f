package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shineum/email-composer-lite/internal/attachment"
	"github.com/shineum/email-composer-lite/internal/email"
)

// Config holds the configuration for creating a Provider.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Sender       string
	// Attachments resolves the draft's attachment locators.
	Attachments attachment.Loader
}

// Provider creates unsent drafts in the sender's mailbox using OAuth2
// client credentials authentication. The user finishes and sends the
// draft from their own client.
type Provider struct {
	sender      string
	messagesURL string
	httpClient  *http.Client
	auth        *mailboxAuth
	loader      attachment.Loader
}

// New creates a new Provider with the given configuration.
func New(cfg Config) *Provider {
	tokenURL := fmt.Sprintf(
		"https://login.microsoftonline.com/%s/oauth2/v2.0/token",
		url.PathEscape(cfg.TenantID),
	)
	messagesURL := fmt.Sprintf(
		"https://graph.microsoft.com/v1.0/users/%s/messages",
		url.PathEscape(cfg.Sender),
	)

	client := &http.Client{Timeout: 30 * time.Second}

	return newWithOverrides(cfg, messagesURL, tokenURL, client)
}

// newWithOverrides creates a Provider with custom URLs and HTTP client,
// used for testing.
func newWithOverrides(cfg Config, messagesURL, tokenURL string, client *http.Client) *Provider {
	return &Provider{
		sender:      cfg.Sender,
		messagesURL: messagesURL,
		httpClient:  client,
		auth:        newMailboxAuth(tokenURL, cfg.ClientID, cfg.ClientSecret, client),
		loader:      cfg.Attachments,
	}
}

// Open stores d as a draft in the sender's mailbox. The request is made
// once; a 401 triggers a single token refresh and resend.
func (p *Provider) Open(ctx context.Context, d *email.Draft) error {
	atts, err := p.loader.LoadAll(d.Attachments)
	if err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}

	bodyJSON, err := json.Marshal(buildDraftMessage(d, atts))
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	token, err := p.auth.bearer(ctx)
	if err != nil {
		return fmt.Errorf("failed to authorize draft creation: %w", err)
	}

	created, err := p.doCreateRequest(ctx, token, bodyJSON)

	// a 401 means nothing was stored, so resending cannot duplicate the draft
	var dErr *draftError
	if errors.As(err, &dErr) && dErr.statusCode == http.StatusUnauthorized {
		slog.Info("renewing Graph API token after 401")
		if token, err = p.auth.renew(ctx, token); err != nil {
			return fmt.Errorf("failed to authorize draft creation: %w", err)
		}
		created, err = p.doCreateRequest(ctx, token, bodyJSON)
	}
	if err != nil {
		return err
	}

	slog.Info("draft created",
		"provider", p.Name(),
		"sender", p.sender,
		"id", created.ID,
		"web_link", created.WebLink,
		"attachments", len(atts),
	)
	return nil
}

// HasClient reports whether the mailbox is reachable, which is the case
// when an access token can be acquired. app is ignored: every alias maps
// to the same hosted mailbox.
func (p *Provider) HasClient(ctx context.Context, _ string) (bool, error) {
	if _, err := p.auth.bearer(ctx); err != nil {
		slog.Warn("Graph API token unavailable", "error", err)
		return false, nil
	}
	return true, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "msgraph"
}

// doCreateRequest performs a single HTTP request to the messages endpoint.
func (p *Provider) doCreateRequest(ctx context.Context, token string, bodyJSON []byte) (*createdMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.messagesURL, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	// HTTP 201 Created is success for message creation
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var created createdMessage
		if len(body) > 0 {
			if err := json.Unmarshal(body, &created); err != nil {
				slog.Debug("unparseable draft creation response", "error", err)
			}
		}
		return &created, nil
	}

	var graphErrResp graphErrorResponse
	if jsonErr := json.Unmarshal(body, &graphErrResp); jsonErr == nil && graphErrResp.Error.Message != "" {
		return nil, &draftError{statusCode: resp.StatusCode, code: graphErrResp.Error.Code, message: graphErrResp.Error.Message}
	}

	return nil, &draftError{statusCode: resp.StatusCode, message: string(body)}
}

// draftError is a non-success response from the Graph API.
type draftError struct {
	statusCode int
	code       string
	message    string
}

func (e *draftError) Error() string {
	msg := fmt.Sprintf("Graph API error (HTTP %d): %s", e.statusCode, e.message)
	if e.code != "" {
		msg = fmt.Sprintf("Graph API error (HTTP %d, %s): %s", e.statusCode, e.code, e.message)
	}
	if e.statusCode == http.StatusForbidden {
		msg += "; the app registration needs the Mail.ReadWrite application permission"
	}
	return msg
}
