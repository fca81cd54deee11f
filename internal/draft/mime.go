package draft

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	netmail "net/mail"

	"github.com/emersion/go-message/mail"

	"github.com/shineum/email-composer-lite/internal/email"
)

// BuildMIME serializes d with its resolved attachments as a multipart
// message/rfc822 draft. It is the EML form used when attachments are
// present, which the plain EML encoding cannot carry.
func BuildMIME(d email.Draft, attachments []email.Attachment) ([]byte, error) {
	var h mail.Header
	h.Set("X-Unsent", "1")
	if d.From != "" {
		h.SetAddressList("From", toAddresses([]string{d.From}))
	}
	if len(d.To) > 0 {
		h.SetAddressList("To", toAddresses(d.To))
	}
	if len(d.Cc) > 0 {
		h.SetAddressList("Cc", toAddresses(d.Cc))
	}
	if len(d.Bcc) > 0 {
		h.SetAddressList("Bcc", toAddresses(d.Bcc))
	}
	if d.Subject != "" {
		h.SetSubject(d.Subject)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create inline part: %w", err)
	}
	var th mail.InlineHeader
	th.SetContentType(ContentType(d), map[string]string{"charset": "utf-8"})
	pw, err := iw.CreatePart(th)
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := io.WriteString(pw, d.Body); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}
	if err := pw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close body part: %w", err)
	}
	if err := iw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close inline part: %w", err)
	}

	for _, att := range attachments {
		var ah mail.AttachmentHeader
		mediaType, params, err := mime.ParseMediaType(att.ContentType)
		if err != nil {
			mediaType, params = "application/octet-stream", nil
		}
		ah.SetContentType(mediaType, params)
		ah.SetFilename(att.Filename)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment %q: %w", att.Filename, err)
		}
		if _, err := aw.Write(att.Content); err != nil {
			return nil, fmt.Errorf("failed to write attachment %q: %w", att.Filename, err)
		}
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("failed to close attachment %q: %w", att.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// toAddresses parses each recipient; unparseable ones are kept verbatim
// so the user can fix them in the composer.
func toAddresses(list []string) []*mail.Address {
	out := make([]*mail.Address, 0, len(list))
	for _, raw := range list {
		if a, err := netmail.ParseAddress(raw); err == nil {
			out = append(out, (*mail.Address)(a))
			continue
		}
		out = append(out, &mail.Address{Address: raw})
	}
	return out
}
