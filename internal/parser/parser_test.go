package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shineum/email-composer-lite/internal/draft"
	"github.com/shineum/email-composer-lite/internal/email"
	"github.com/shineum/email-composer-lite/internal/options"
)

func TestParsePlainTextDraft(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"From: Sender <sender@example.com>",
		"To: recipient@example.com",
		"Subject: Test Subject",
		"X-Unsent: 1",
		"Content-Type: text/plain",
		"",
		"Hello, this is a plain text draft.",
	}, "\r\n"))

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.From != "sender@example.com" {
		t.Errorf("From: got %q, want %q", msg.From, "sender@example.com")
	}
	if len(msg.To) != 1 || msg.To[0] != "recipient@example.com" {
		t.Errorf("To: got %v, want [recipient@example.com]", msg.To)
	}
	if msg.Subject != "Test Subject" {
		t.Errorf("Subject: got %q, want %q", msg.Subject, "Test Subject")
	}
	if msg.TextBody != "Hello, this is a plain text draft." {
		t.Errorf("TextBody: got %q", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		t.Errorf("HTMLBody: got %q, want empty", msg.HTMLBody)
	}
}

func TestParseMultipartTextAndHTML(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"From: sender@example.com",
		"To: alice@example.com, bob@example.com",
		"Cc: carol@example.com",
		"Subject: Multipart Test",
		"Content-Type: multipart/alternative; boundary=boundary123",
		"",
		"--boundary123",
		"Content-Type: text/plain",
		"",
		"Plain text body",
		"--boundary123",
		"Content-Type: text/html",
		"",
		"<p>HTML body</p>",
		"--boundary123--",
	}, "\r\n"))

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(msg.To, []string{"alice@example.com", "bob@example.com"}) {
		t.Errorf("To: got %v", msg.To)
	}
	if len(msg.Cc) != 1 || msg.Cc[0] != "carol@example.com" {
		t.Errorf("Cc: got %v, want [carol@example.com]", msg.Cc)
	}
	if msg.TextBody != "Plain text body" {
		t.Errorf("TextBody: got %q", msg.TextBody)
	}
	if msg.HTMLBody != "<p>HTML body</p>" {
		t.Errorf("HTMLBody: got %q", msg.HTMLBody)
	}

	opts := msg.Options()
	if opts["body"] != "<p>HTML body</p>" || opts["isHtml"] != true {
		t.Errorf("Options should prefer the HTML alternative, got body=%v isHtml=%v", opts["body"], opts["isHtml"])
	}
}

func TestParseDraftWithAttachments(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"To: recipient@example.com",
		"Subject: With Attachment",
		"Content-Type: multipart/mixed; boundary=mixedboundary",
		"",
		"--mixedboundary",
		"Content-Type: text/plain",
		"",
		"Draft body text",
		"--mixedboundary",
		"Content-Type: application/pdf; name=\"report.pdf\"",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVs",
		"bG8g",
		"V29ybGQ=",
		"--mixedboundary--",
	}, "\r\n"))

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(msg.Attachments) != 1 {
		t.Fatalf("Attachments: got %d, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "report.pdf" || att.ContentType != "application/pdf" || string(att.Content) != "Hello World" {
		t.Errorf("Attachment: got %+v", att)
	}

	refs, ok := msg.Options()["attachments"].([]string)
	if !ok || len(refs) != 1 || refs[0] != "base64:report.pdf//SGVsbG8gV29ybGQ=" {
		t.Errorf("attachments option: got %v", msg.Options()["attachments"])
	}
}

func TestParseAttachmentWithoutFilename(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"To: recipient@example.com",
		"Content-Type: multipart/mixed; boundary=bound",
		"",
		"--bound",
		"Content-Type: text/plain",
		"",
		"body",
		"--bound",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVsbG8gV29ybGQ=",
		"--bound--",
	}, "\r\n"))

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("Attachments: got %d, want 1", len(msg.Attachments))
	}
	if msg.Attachments[0].Filename != "attachment.pdf" {
		t.Errorf("Filename: got %q, want %q", msg.Attachments[0].Filename, "attachment.pdf")
	}
}

func TestParseNestedMultipart(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"To: recipient@example.com",
		"Subject: Nested Multipart",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/plain",
		"",
		"Plain text part",
		"--inner",
		"Content-Type: text/html",
		"",
		"<p>HTML part</p>",
		"--inner--",
		"--outer",
		"Content-Type: application/octet-stream; name=\"data.bin\"",
		"Content-Disposition: attachment; filename=\"data.bin\"",
		"",
		"binarydata",
		"--outer--",
	}, "\r\n"))

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.TextBody != "Plain text part" {
		t.Errorf("TextBody: got %q", msg.TextBody)
	}
	if msg.HTMLBody != "<p>HTML part</p>" {
		t.Errorf("HTMLBody: got %q", msg.HTMLBody)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "data.bin" {
		t.Errorf("Attachments: got %+v", msg.Attachments)
	}
}

func TestParseEncodedHeadersAndQuotedPrintable(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"To: recipient@example.com",
		"Subject: =?UTF-8?Q?Gr=C3=BC=C3=9Fe?=",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"caf=C3=A9 au lait",
	}, "\r\n"))

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Subject != "Grüße" {
		t.Errorf("Subject: got %q, want %q", msg.Subject, "Grüße")
	}
	if msg.TextBody != "café au lait" {
		t.Errorf("TextBody: got %q, want %q", msg.TextBody, "café au lait")
	}
}

func TestParseMalformedMIME(t *testing.T) {
	t.Parallel()

	t.Run("completely invalid message", func(t *testing.T) {
		t.Parallel()
		raw := []byte("not a valid email at all\x00\x01\x02")
		if _, err := Parse(raw); err == nil {
			t.Error("expected error for completely invalid message, got nil")
		}
	})

	t.Run("missing content type defaults to text/plain", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"To: recipient@example.com",
			"Subject: No Content Type",
			"",
			"Body without content type header",
		}, "\r\n"))

		msg, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.TextBody != "Body without content type header" {
			t.Errorf("TextBody: got %q", msg.TextBody)
		}
	})

	t.Run("multipart missing boundary", func(t *testing.T) {
		t.Parallel()
		raw := []byte(strings.Join([]string{
			"To: recipient@example.com",
			"Content-Type: multipart/mixed",
			"",
			"some body",
		}, "\r\n"))

		if _, err := Parse(raw); err == nil {
			t.Error("expected error for multipart missing boundary, got nil")
		}
	})
}

func TestParseEmptyAddressFields(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Join([]string{
		"Subject: No To",
		"Content-Type: text/plain",
		"",
		"Body",
	}, "\r\n"))

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.To != nil || msg.Cc != nil || msg.Bcc != nil {
		t.Errorf("expected nil recipient lists, got to=%v cc=%v bcc=%v", msg.To, msg.Cc, msg.Bcc)
	}

	d := options.Normalize(msg.Options(), options.Defaults(), nil)
	if d.To == nil || len(d.To) != 0 {
		t.Errorf("normalized To: got %v, want empty", d.To)
	}
}

func TestParse_EMLRoundTrip(t *testing.T) {
	t.Parallel()

	orig := email.Draft{
		App:           email.MailtoScheme,
		To:            []string{"a@x.com", "b@x.com"},
		Cc:            []string{"c@x.com"},
		Bcc:           []string{},
		Attachments:   []string{},
		Subject:       "Round trip",
		Body:          "<p>Hello</p>",
		IsHTML:        true,
		ChooserHeader: options.DefaultChooserHeader,
	}

	msg, err := Parse([]byte(draft.BuildEML(orig).Text))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := options.Normalize(msg.Options(), options.Defaults(), nil)
	if !reflect.DeepEqual(got.To, orig.To) || !reflect.DeepEqual(got.Cc, orig.Cc) {
		t.Errorf("recipients: got to=%v cc=%v", got.To, got.Cc)
	}
	if got.Subject != orig.Subject {
		t.Errorf("Subject: got %q", got.Subject)
	}
	if !got.IsHTML || !strings.Contains(got.Body, "<p>Hello</p>") {
		t.Errorf("Body: got %q (html=%v)", got.Body, got.IsHTML)
	}
}

func TestParse_MIMERoundTrip(t *testing.T) {
	t.Parallel()

	orig := email.Draft{
		From:    "me@example.com",
		To:      []string{"a@x.com"},
		Bcc:     []string{"hidden@x.com"},
		Subject: "With file",
		Body:    "See attached",
	}
	atts := []email.Attachment{{Filename: "notes.txt", ContentType: "text/plain", Content: []byte("some notes")}}

	raw, err := draft.BuildMIME(orig, atts)
	if err != nil {
		t.Fatalf("BuildMIME: %v", err)
	}

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if msg.From != "me@example.com" || msg.Subject != "With file" || msg.TextBody != "See attached" {
		t.Errorf("got %+v", msg)
	}
	if !reflect.DeepEqual(msg.Bcc, []string{"hidden@x.com"}) {
		t.Errorf("Bcc: got %v", msg.Bcc)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "notes.txt" || string(msg.Attachments[0].Content) != "some notes" {
		t.Errorf("Attachments: got %+v", msg.Attachments)
	}
}
