// Package main is the entry point for the email-composer command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/shineum/email-composer-lite/internal/alias"
	"github.com/shineum/email-composer-lite/internal/attachment"
	"github.com/shineum/email-composer-lite/internal/composer"
	"github.com/shineum/email-composer-lite/internal/config"
	"github.com/shineum/email-composer-lite/internal/draft"
	"github.com/shineum/email-composer-lite/internal/email"
	"github.com/shineum/email-composer-lite/internal/options"
	"github.com/shineum/email-composer-lite/internal/parser"
	"github.com/shineum/email-composer-lite/internal/provider"
	"github.com/shineum/email-composer-lite/internal/provider/graph"
	"github.com/shineum/email-composer-lite/internal/provider/ses"
	"github.com/shineum/email-composer-lite/internal/provider/stdout"
	"github.com/shineum/email-composer-lite/internal/provider/system"
)

const usage = `usage: email-composer <command> [flags]

commands:
  open         open a draft with the configured provider
  has-client   report whether a mail client is available (-app alias)
  has-account  report whether a sending account is available
  aliases      list app aliases for the platform
  mailto       print the mailto URI for a draft
  eml          print the EML document for a draft
  cleanup      remove EML files written by the system provider
`

// errFalse signals a negative answer; the command exits 1 without logging.
var errFalse = errors.New("false")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout))
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML configuration file (optional)")
	in := registerDraftFlags(fs)

	switch cmd {
	case "open", "has-client", "has-account", "aliases", "mailto", "eml", "cleanup":
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err := fs.Parse(rest); err != nil {
		return 2
	}

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level, os.Stderr)

	err = dispatch(ctx, cmd, cfg, in, out)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFalse):
		return 1
	default:
		slog.Error("command failed", "command", cmd, "error", err)
		return 1
	}
}

func dispatch(ctx context.Context, cmd string, cfg *config.Config, in *draftInput, out io.Writer) error {
	loader := attachmentLoader(cfg)

	prov, err := selectProvider(ctx, cfg, loader, out)
	if err != nil {
		return err
	}

	accounts, err := selectAccountChecker(ctx, cfg)
	if err != nil {
		return err
	}

	c, err := composer.New(composer.Config{
		Registry: newRegistry(cfg),
		Defaults: email.Draft{
			App:           cfg.Defaults.App,
			IsHTML:        cfg.Defaults.IsHTML,
			ChooserHeader: cfg.Defaults.ChooserHeader,
			To:            []string{},
			Cc:            []string{},
			Bcc:           []string{},
			Attachments:   []string{},
		},
		Provider: prov,
		Accounts: accounts,
	})
	if err != nil {
		return err
	}

	switch cmd {
	case "has-client":
		ok, err := c.HasClient(ctx, in.app)
		return printAnswer(out, ok, err)

	case "has-account":
		ok, err := c.HasAccount(ctx)
		return printAnswer(out, ok, err)

	case "aliases":
		return printAliases(out, c.Aliases())

	case "cleanup":
		sp, ok := prov.(*system.Provider)
		if !ok {
			return fmt.Errorf("cleanup requires the system provider, have %q", prov.Name())
		}
		return sp.Cleanup()
	}

	raw, err := in.options()
	if err != nil {
		return err
	}

	switch cmd {
	case "open":
		d, err := c.Open(ctx, raw)
		if err != nil {
			return err
		}
		slog.Info("draft handed off", "provider", prov.Name(), "app", d.App)
		return nil

	case "mailto":
		m := draft.BuildMailto(c.Normalize(raw))
		if m.DegradedToPlainText {
			slog.Warn("html body degraded to plain text")
		}
		_, err := fmt.Fprintln(out, m.URI)
		return err

	case "eml":
		return printEML(out, c.Normalize(raw), loader)
	}

	return nil
}

// printAnswer prints a boolean result and maps false to errFalse.
func printAnswer(out io.Writer, ok bool, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ok)
	if !ok {
		return errFalse
	}
	return nil
}

func printAliases(out io.Writer, aliases map[string]string) error {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		id := aliases[name]
		if id == "" {
			id = "(unsupported)"
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\n", name, id); err != nil {
			return err
		}
	}
	return nil
}

// printEML writes the draft as an EML document. Drafts with attachments
// are written as multipart MIME.
func printEML(out io.Writer, d email.Draft, loader attachment.Loader) error {
	if len(d.Attachments) == 0 {
		_, err := io.WriteString(out, draft.BuildEML(d).Text)
		return err
	}

	atts, err := loader.LoadAll(d.Attachments)
	if err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	data, err := draft.BuildMIME(d, atts)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level. Logs go to w so command output on stdout stays
// machine readable.
func setupLogger(level string, w io.Writer) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// newRegistry seeds the platform aliases and applies configured ones on top.
func newRegistry(cfg *config.Config) *alias.Registry {
	reg := alias.NewRegistry(alias.ParsePlatform(cfg.Platform))
	for name, id := range cfg.Aliases {
		reg.Register(name, id)
	}
	return reg
}

func attachmentLoader(cfg *config.Config) attachment.Loader {
	return attachment.Loader{
		AssetDir:    cfg.Attachments.AssetDir,
		ResourceDir: cfg.Attachments.ResourceDir,
		AppDir:      cfg.Attachments.AppDir,
	}
}

// selectProvider chooses the hand-off backend based on configuration.
// If the PROVIDER env var is set, it takes precedence. Otherwise Graph is
// used when configured and the desktop opener when not.
func selectProvider(_ context.Context, cfg *config.Config, loader attachment.Loader, out io.Writer) (provider.Provider, error) {
	switch cfg.Provider {
	case "graph":
		if !cfg.GraphConfigured() {
			return nil, errors.New("graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, and GRAPH_SENDER are required")
		}
		slog.Info("using Microsoft Graph provider",
			"sender", cfg.Graph.Sender,
		)
		return newGraphProvider(cfg, loader), nil

	case "stdout":
		slog.Debug("using stdout provider")
		return stdout.NewWithWriter(out), nil

	case "system":
		slog.Debug("using system provider", "platform", cfg.Platform)
		return newSystemProvider(cfg, loader), nil

	case "":
		if cfg.GraphConfigured() {
			slog.Info("using Microsoft Graph provider (auto-detected)",
				"sender", cfg.Graph.Sender,
			)
			return newGraphProvider(cfg, loader), nil
		}
		slog.Debug("no provider configured, using system provider")
		return newSystemProvider(cfg, loader), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newGraphProvider(cfg *config.Config, loader attachment.Loader) *graph.Provider {
	return graph.New(graph.Config{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		Sender:       cfg.Graph.Sender,
		Attachments:  loader,
	})
}

func newSystemProvider(cfg *config.Config, loader attachment.Loader) *system.Provider {
	return system.New(system.Config{
		Platform:    cfg.Platform,
		Attachments: loader,
	})
}

// selectAccountChecker returns the SES checker when SES is configured and
// nil otherwise.
func selectAccountChecker(ctx context.Context, cfg *config.Config) (provider.AccountChecker, error) {
	if !cfg.SESConfigured() {
		return nil, nil
	}

	slog.Debug("using AWS SES account checker",
		"region", cfg.SES.Region,
		"sender", cfg.SES.Sender,
	)
	c, err := ses.New(ctx, ses.Config{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SES account checker: %w", err)
	}
	return c, nil
}

// stringList is a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// draftInput collects the draft sources given on the command line.
type draftInput struct {
	fs          *flag.FlagSet
	optionsFile string
	emlFile     string
	app         string
	from        string
	to          string
	cc          string
	bcc         string
	subject     string
	body        string
	html        bool
	chooser     string
	attach      stringList
}

func registerDraftFlags(fs *flag.FlagSet) *draftInput {
	in := &draftInput{fs: fs}
	fs.StringVar(&in.optionsFile, "options", "", "YAML or JSON file with draft options")
	fs.StringVar(&in.emlFile, "eml", "", "existing .eml message to reopen as a draft")
	fs.StringVar(&in.app, "app", "", "mail app alias or identifier")
	fs.StringVar(&in.from, "from", "", "sender address")
	fs.StringVar(&in.to, "to", "", "comma-separated recipients")
	fs.StringVar(&in.cc, "cc", "", "comma-separated cc recipients")
	fs.StringVar(&in.bcc, "bcc", "", "comma-separated bcc recipients")
	fs.StringVar(&in.subject, "subject", "", "subject line")
	fs.StringVar(&in.body, "body", "", "message body")
	fs.BoolVar(&in.html, "html", false, "treat the body as HTML")
	fs.StringVar(&in.chooser, "chooser-header", "", "title of the app chooser")
	fs.Var(&in.attach, "attach", "attachment locator (repeatable)")
	return in
}

// options merges the EML import, the options file and the explicit flags,
// later sources winning key by key.
func (in *draftInput) options() (map[string]any, error) {
	raw := map[string]any{}

	if in.emlFile != "" {
		data, err := os.ReadFile(in.emlFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read EML file: %w", err)
		}
		msg, err := parser.Parse(data)
		if err != nil {
			return nil, err
		}
		for k, v := range msg.Options() {
			raw[k] = v
		}
	}

	if in.optionsFile != "" {
		data, err := os.ReadFile(in.optionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read options file: %w", err)
		}
		var fileOpts map[string]any
		if err := yaml.Unmarshal(data, &fileOpts); err != nil {
			return nil, fmt.Errorf("failed to parse options file: %w", err)
		}
		for k, v := range fileOpts {
			raw[k] = v
		}
	}

	set := map[string]bool{}
	in.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	strFlags := []struct {
		flag, key, value string
	}{
		{"app", options.KeyApp, in.app},
		{"from", options.KeyFrom, in.from},
		{"subject", options.KeySubject, in.subject},
		{"body", options.KeyBody, in.body},
		{"chooser-header", options.KeyChooserHeader, in.chooser},
	}
	for _, f := range strFlags {
		if set[f.flag] {
			raw[f.key] = f.value
		}
	}

	listFlags := []struct {
		flag, key, value string
	}{
		{"to", options.KeyTo, in.to},
		{"cc", options.KeyCc, in.cc},
		{"bcc", options.KeyBcc, in.bcc},
	}
	for _, f := range listFlags {
		if set[f.flag] {
			raw[f.key] = splitList(f.value)
		}
	}

	if set["html"] {
		// the legacy spelling would otherwise win over the flag
		delete(raw, "isHTML")
		raw[options.KeyIsHTML] = in.html
	}
	if len(in.attach) > 0 {
		raw[options.KeyAttachments] = []string(in.attach)
	}

	return raw, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
