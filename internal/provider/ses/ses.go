// Package ses implements an AccountChecker backed by AWS SES v2. It tells
// the composer whether a sending account is available before it offers to
// open a draft.
package ses

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
)

// Config holds the configuration for creating a Checker.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Sender, when set, must also be a verified identity.
	Sender string
}

// AccountAPI is the subset of the SES v2 client the checker uses.
// Used for testing with mock implementations.
type AccountAPI interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
	GetEmailIdentity(ctx context.Context, params *sesv2.GetEmailIdentityInput, optFns ...func(*sesv2.Options)) (*sesv2.GetEmailIdentityOutput, error)
}

// Checker reports whether the SES account can send mail.
type Checker struct {
	sender string
	client AccountAPI
}

// New creates a new Checker with the given configuration.
func New(ctx context.Context, cfg Config) (*Checker, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Checker{
		sender: cfg.Sender,
		client: sesv2.NewFromConfig(awsCfg),
	}, nil
}

// NewWithClient creates a Checker with a custom client, used for testing.
func NewWithClient(sender string, client AccountAPI) *Checker {
	return &Checker{
		sender: sender,
		client: client,
	}
}

// HasAccount returns true when sending is enabled on the account and,
// if a sender is configured, that identity is verified for sending.
// API failures are returned as errors; a disabled account is not an error.
func (c *Checker) HasAccount(ctx context.Context) (bool, error) {
	account, err := c.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return false, fmt.Errorf("failed to get SES account: %w", err)
	}

	if quota := account.SendQuota; quota != nil {
		slog.Debug("SES send quota",
			"max_24_hour_send", quota.Max24HourSend,
			"sent_last_24_hours", quota.SentLast24Hours,
			"production_access", account.ProductionAccessEnabled,
		)
	}

	if !account.SendingEnabled {
		slog.Warn("SES sending is disabled for this account")
		return false, nil
	}

	if c.sender == "" {
		return true, nil
	}

	identity, err := c.client.GetEmailIdentity(ctx, &sesv2.GetEmailIdentityInput{
		EmailIdentity: aws.String(c.sender),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get SES identity %q: %w", c.sender, err)
	}

	if !identity.VerifiedForSendingStatus {
		slog.Warn("SES sender identity is not verified for sending",
			"sender", c.sender,
			"status", identity.VerificationStatus,
		)
		return false, nil
	}

	return true, nil
}
