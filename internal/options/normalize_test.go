package options

import (
	"reflect"
	"testing"

	"github.com/shineum/email-composer-lite/internal/alias"
	"github.com/shineum/email-composer-lite/internal/email"
)

func TestNormalize_EmptyInputYieldsDefaults(t *testing.T) {
	t.Parallel()

	got := Normalize(nil, Defaults(), alias.NewRegistry(alias.IOS))
	want := Defaults()

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize(nil): got %+v, want %+v", got, want)
	}
}

func TestNormalize_ScalarsBecomeLists(t *testing.T) {
	t.Parallel()

	got := Normalize(map[string]any{
		"to":          "a@example.com",
		"cc":          "b@example.com",
		"bcc":         "c@example.com",
		"attachments": "file:///tmp/a.pdf",
	}, Defaults(), nil)

	checks := map[string][]string{
		"to":          got.To,
		"cc":          got.Cc,
		"bcc":         got.Bcc,
		"attachments": got.Attachments,
	}
	want := map[string][]string{
		"to":          {"a@example.com"},
		"cc":          {"b@example.com"},
		"bcc":         {"c@example.com"},
		"attachments": {"file:///tmp/a.pdf"},
	}
	for k, v := range checks {
		if !reflect.DeepEqual(v, want[k]) {
			t.Errorf("%s: got %v, want %v", k, v, want[k])
		}
	}
}

func TestNormalize_ListInputs(t *testing.T) {
	t.Parallel()

	got := Normalize(map[string]any{
		"to": []any{"a@example.com", "b@example.com"},
		"cc": []string{"c@example.com"},
	}, Defaults(), nil)

	if !reflect.DeepEqual(got.To, []string{"a@example.com", "b@example.com"}) {
		t.Errorf("To: got %v", got.To)
	}
	if !reflect.DeepEqual(got.Cc, []string{"c@example.com"}) {
		t.Errorf("Cc: got %v", got.Cc)
	}
	if got.Bcc == nil || len(got.Bcc) != 0 {
		t.Errorf("Bcc: got %v, want empty non-nil", got.Bcc)
	}
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	to := []string{"a@example.com"}
	defaults := Defaults()
	defaults.Cc = []string{"default@example.com"}

	got := Normalize(map[string]any{"to": to}, defaults, nil)
	got.To[0] = "changed"
	got.Cc[0] = "changed"

	if to[0] != "a@example.com" {
		t.Errorf("caller slice was mutated: %v", to)
	}
	if defaults.Cc[0] != "default@example.com" {
		t.Errorf("defaults slice was mutated: %v", defaults.Cc)
	}
}

func TestNormalize_BodyLinesJoined(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
		want string
	}{
		{name: "string slice", body: []string{"line 1", "line 2"}, want: "line 1\nline 2"},
		{name: "any slice", body: []any{"line 1", 2.0, true}, want: "line 1\n2\ntrue"},
		{name: "plain string", body: "hello", want: "hello"},
		{name: "number", body: 42, want: "42"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Normalize(map[string]any{"body": tt.body}, Defaults(), nil)
			if got.Body != tt.want {
				t.Errorf("Body: got %q, want %q", got.Body, tt.want)
			}
		})
	}
}

func TestNormalize_IsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]any
		want bool
	}{
		{name: "absent uses default", raw: map[string]any{}, want: false},
		{name: "null uses default", raw: map[string]any{"isHtml": nil}, want: false},
		{name: "true", raw: map[string]any{"isHtml": true}, want: true},
		{name: "string true", raw: map[string]any{"isHtml": "true"}, want: true},
		{name: "string false", raw: map[string]any{"isHtml": "false"}, want: false},
		{name: "non-empty string", raw: map[string]any{"isHtml": "yes please"}, want: true},
		{name: "empty string", raw: map[string]any{"isHtml": ""}, want: false},
		{name: "one", raw: map[string]any{"isHtml": 1}, want: true},
		{name: "zero float", raw: map[string]any{"isHtml": 0.0}, want: false},
		{name: "legacy key wins", raw: map[string]any{"isHtml": false, "isHTML": true}, want: true},
		{name: "legacy key alone", raw: map[string]any{"isHTML": "1"}, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Normalize(tt.raw, Defaults(), nil)
			if got.IsHTML != tt.want {
				t.Errorf("IsHTML: got %v, want %v", got.IsHTML, tt.want)
			}
		})
	}
}

func TestNormalize_IsHTMLDefaultFromConfig(t *testing.T) {
	t.Parallel()

	defaults := Defaults()
	defaults.IsHTML = true

	if got := Normalize(map[string]any{}, defaults, nil); !got.IsHTML {
		t.Error("IsHTML: default true should apply when key is absent")
	}
	if got := Normalize(map[string]any{"isHtml": false}, defaults, nil); got.IsHTML {
		t.Error("IsHTML: explicit false should override default")
	}
}

func TestNormalize_AppAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform alias.Platform
		app      any
		want     string
	}{
		{name: "gmail android", platform: alias.Android, app: "gmail", want: "com.google.android.gm"},
		{name: "outlook ios", platform: alias.IOS, app: "outlook", want: "ms-outlook://compose"},
		{name: "unsupported alias falls back to mailto", platform: alias.IOS, app: "hub", want: email.MailtoScheme},
		{name: "raw package passes through", platform: alias.Android, app: "com.example.mail", want: "com.example.mail"},
		{name: "empty uses default", platform: alias.Android, app: "", want: email.MailtoScheme},
		{name: "absent uses default", platform: alias.Android, app: nil, want: email.MailtoScheme},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Normalize(map[string]any{"app": tt.app}, Defaults(), alias.NewRegistry(tt.platform))
			if got.App != tt.want {
				t.Errorf("App: got %q, want %q", got.App, tt.want)
			}
		})
	}
}

func TestNormalize_StringCoercion(t *testing.T) {
	t.Parallel()

	got := Normalize(map[string]any{
		"subject":       12.5,
		"from":          []any{"me@example.com", "alt@example.com"},
		"chooserHeader": "Send via",
	}, Defaults(), nil)

	if got.Subject != "12.5" {
		t.Errorf("Subject: got %q, want %q", got.Subject, "12.5")
	}
	if got.From != "me@example.com,alt@example.com" {
		t.Errorf("From: got %q", got.From)
	}
	if got.ChooserHeader != "Send via" {
		t.Errorf("ChooserHeader: got %q", got.ChooserHeader)
	}
}

func TestNormalize_EmptyDefaultAppStillMailto(t *testing.T) {
	t.Parallel()

	defaults := Defaults()
	defaults.App = ""

	if got := Normalize(nil, defaults, nil); got.App != email.MailtoScheme {
		t.Errorf("App: got %q, want %q", got.App, email.MailtoScheme)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []map[string]any{
		{},
		{"app": "gmail", "to": "a@example.com", "isHtml": "true", "body": []any{"a", "b"}},
		{"app": "hub", "cc": []any{"x@example.com", 7}, "subject": 3},
		{"isHTML": 1, "attachments": "base64:a.txt//YQ==", "chooserHeader": nil},
		{"from": "me@example.com", "bcc": []string{}},
	}

	for _, platform := range []alias.Platform{alias.Android, alias.IOS} {
		reg := alias.NewRegistry(platform)
		for i, in := range inputs {
			once := Normalize(in, Defaults(), reg)
			twice := Normalize(once.Map(), Defaults(), reg)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("%s input %d: not idempotent\nonce:  %+v\ntwice: %+v", platform, i, once, twice)
			}
		}
	}
}

func TestNormalize_ListsNeverNil(t *testing.T) {
	t.Parallel()

	inputs := []map[string]any{
		nil,
		{"to": nil, "cc": "", "bcc": []any{}, "attachments": []string(nil)},
		{"to": 5, "cc": true},
	}

	defaults := email.Draft{}
	for i, in := range inputs {
		got := Normalize(in, defaults, nil)
		if got.To == nil || got.Cc == nil || got.Bcc == nil || got.Attachments == nil {
			t.Errorf("input %d: got nil list in %+v", i, got)
		}
	}
}

func TestNormalize_ChainedAliasIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := alias.NewRegistry(alias.IOS)
	reg.Register("work", "gmail")

	once := Normalize(map[string]any{"app": "work"}, Defaults(), reg)
	if once.App != "googlegmail://co" {
		t.Fatalf("App: got %q, want %q", once.App, "googlegmail://co")
	}

	twice := Normalize(once.Map(), Defaults(), reg)
	if twice.App != once.App {
		t.Errorf("App not stable: %q then %q", once.App, twice.App)
	}
}
