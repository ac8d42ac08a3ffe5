package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"gopkg.in/gomail.v2"

	"newswire/internal/config"
	"newswire/internal/notify"
)

// NewMailer builds the mail transport named by the configured driver. SES
// is the production path; SMTP exists for local development and self-hosted
// deployments.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) (notify.Mailer, error) {
	switch cfg.Driver {
	case "ses":
		return NewSESMailer(cfg.AWSRegion, cfg.FromAddress, logger)
	case "smtp":
		return NewSMTPMailer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown mail driver: %s", cfg.Driver)
	}
}

// SESMailer sends email through AWS SES.
type SESMailer struct {
	client      *ses.Client
	fromAddress string
	logger      *slog.Logger
}

func NewSESMailer(region, fromAddress string, logger *slog.Logger) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESMailer{
		client:      ses.NewFromConfig(awsCfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// Send delivers one HTML email via SES.
func (m *SESMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Debug("email sent via SES",
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// SMTPMailer sends email through a plain SMTP relay.
type SMTPMailer struct {
	dialer      *gomail.Dialer
	fromAddress string
	fromName    string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer:      gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}
}

// Send delivers one HTML email via SMTP. gomail has no context-aware dial,
// so cancellation only takes effect between messages.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromAddress, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
