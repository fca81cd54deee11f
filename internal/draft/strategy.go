package draft

import "github.com/shineum/email-composer-lite/internal/email"

// Strategy is the encoding a hand-off uses.
type Strategy string

const (
	// StrategyNative passes the draft record to a native composer.
	StrategyNative Strategy = "native"
	// StrategyEML opens an EML document with the associated mail app.
	StrategyEML Strategy = "eml"
	// StrategyMailto launches a mailto URI.
	StrategyMailto Strategy = "mailto"
)

// Capabilities describes what a hand-off target can consume.
type Capabilities struct {
	// NativeComposer is set when the target builds its own draft from
	// the record field by field.
	NativeComposer bool
	// EML is set when the target can open message/rfc822 files.
	EML bool
}

// SelectStrategy picks the richest encoding the target supports. EML is
// only preferred when mailto would lose something: markup or attachments.
func SelectStrategy(caps Capabilities, d email.Draft) Strategy {
	switch {
	case caps.NativeComposer:
		return StrategyNative
	case caps.EML && (d.IsHTML || len(d.Attachments) > 0):
		return StrategyEML
	default:
		return StrategyMailto
	}
}
