// Package graph implements a Provider that creates unsent drafts in a
// Microsoft 365 mailbox via the Microsoft Graph API.
package graph

import (
	"encoding/base64"

	"github.com/shineum/email-composer-lite/internal/draft"
	"github.com/shineum/email-composer-lite/internal/email"
)

// draftMessage is the request body for POST /users/{id}/messages, which
// stores the message in the Drafts folder without sending it.
type draftMessage struct {
	Subject       string            `json:"subject"`
	Body          messageBody       `json:"body"`
	From          *recipient        `json:"from,omitempty"`
	ToRecipients  []recipient       `json:"toRecipients"`
	CcRecipients  []recipient       `json:"ccRecipients,omitempty"`
	BccRecipients []recipient       `json:"bccRecipients,omitempty"`
	Attachments   []graphAttachment `json:"attachments,omitempty"`
}

// messageBody represents the body of an email message.
type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// recipient represents an email recipient.
type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

// emailAddress represents an email address in a Graph API request.
type emailAddress struct {
	Address string `json:"address"`
}

// graphAttachment represents a file attachment in a Graph API request.
type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

// createdMessage is the subset of the created draft the provider reports.
type createdMessage struct {
	ID      string `json:"id"`
	WebLink string `json:"webLink"`
}

// tokenResponse represents the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// tokenErrorResponse is the token endpoint's error body.
type tokenErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// graphErrorResponse represents an error response from the Graph API.
type graphErrorResponse struct {
	Error graphError `json:"error"`
}

// graphError represents the error detail in a Graph API error response.
type graphError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// buildDraftMessage converts a draft and its resolved attachments into a
// Graph API message body.
func buildDraftMessage(d *email.Draft, atts []email.Attachment) *draftMessage {
	body := messageBody{ContentType: "text", Content: d.Body}
	if draft.ContentType(*d) == "text/html" {
		body.ContentType = "html"
	}

	msg := &draftMessage{
		Subject:       d.Subject,
		Body:          body,
		ToRecipients:  recipients(d.To),
		CcRecipients:  recipients(d.Cc),
		BccRecipients: recipients(d.Bcc),
	}
	if d.From != "" {
		msg.From = &recipient{EmailAddress: emailAddress{Address: d.From}}
	}

	if len(atts) > 0 {
		msg.Attachments = make([]graphAttachment, 0, len(atts))
		for _, att := range atts {
			msg.Attachments = append(msg.Attachments, graphAttachment{
				ODataType:    "#microsoft.graph.fileAttachment",
				Name:         att.Filename,
				ContentType:  att.ContentType,
				ContentBytes: base64.StdEncoding.EncodeToString(att.Content),
			})
		}
	}

	return msg
}

func recipients(addrs []string) []recipient {
	out := make([]recipient, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, recipient{EmailAddress: emailAddress{Address: addr}})
	}
	return out
}
