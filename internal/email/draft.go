// Package email defines the draft data model shared by the normalizer,
// the draft builders and the hand-off providers.
package email

// MailtoScheme is the default transport marker. A draft whose App equals
// MailtoScheme is handed to whatever client handles mailto links.
const MailtoScheme = "mailto:"

// Draft is the canonical, fully normalized set of options for one
// "open a draft" request. Empty strings mean absent; list fields are
// never nil once produced by the normalizer.
type Draft struct {
	App           string
	From          string
	Subject       string
	Body          string
	To            []string
	Cc            []string
	Bcc           []string
	Attachments   []string
	IsHTML        bool
	ChooserHeader string
}

// Attachment is an attachment whose locator has been resolved to content.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	d.To = cloneList(d.To)
	d.Cc = cloneList(d.Cc)
	d.Bcc = cloneList(d.Bcc)
	d.Attachments = cloneList(d.Attachments)
	return d
}

// UsesMailto reports whether the draft targets the default mailto transport.
func (d Draft) UsesMailto() bool {
	return d.App == "" || d.App == MailtoScheme
}

// Map converts the draft back into a loose option bag using the same keys
// callers supply, so a normalized draft can be normalized again.
func (d Draft) Map() map[string]any {
	return map[string]any{
		"app":           d.App,
		"from":          d.From,
		"subject":       d.Subject,
		"body":          d.Body,
		"to":            cloneList(d.To),
		"cc":            cloneList(d.Cc),
		"bcc":           cloneList(d.Bcc),
		"attachments":   cloneList(d.Attachments),
		"isHtml":        d.IsHTML,
		"chooserHeader": d.ChooserHeader,
	}
}

func cloneList(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
