package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Message is an outbound notification payload.
type Message struct {
	Recipient string
	Sender    string
	Subject   string
	Text      string
	HTML      string
}

// Mailer is the consumed notification-sender interface. Implementations
// are remote calls that can fail or time out; callers own the rollback of
// any secret whose delivery failed.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// AWSSESMailer sends emails using AWS SES
type AWSSESMailer struct {
	sesClient   *ses.Client
	fromAddress string
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewAWSSESMailer creates a new AWS SES mailer. Every send is bounded by
// sendTimeout; a timed-out send counts as a delivery failure.
func NewAWSSESMailer(region, fromAddress string, sendTimeout time.Duration, logger *slog.Logger) (*AWSSESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESMailer{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		sendTimeout: sendTimeout,
		logger:      logger,
	}, nil
}

// Send delivers one message via SES.
func (m *AWSSESMailer) Send(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return fmt.Errorf("recipient email is required")
	}

	sender := msg.Sender
	if sender == "" {
		sender = m.fromAddress
	}

	ctx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()

	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML)}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text)}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.Recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(msg.Subject),
			},
			Body: body,
		},
	}

	result, err := m.sesClient.SendEmail(ctx, input)
	if err != nil {
		m.logger.Error("failed to send email via SES",
			slog.String("subject", msg.Subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		slog.String("subject", msg.Subject),
		slog.String("message_id", *result.MessageId))

	return nil
}

// otpMessage builds the verification-code email.
func otpMessage(recipient, otp string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 16px; background-color: #f8f9fa; border-radius: 4px; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Verify your email address</h1>
        <p>Enter this code to finish setting up your account:</p>
        <div class="code">%s</div>
        <p>The code expires in %d minutes.</p>
        <p><strong>Didn't create this account?</strong><br>
        If you didn't sign up, you can ignore this email.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, otp, minutes)

	textBody := fmt.Sprintf(`Verify your email address

Enter this code to finish setting up your account:

%s

The code expires in %d minutes.

If you didn't sign up, you can ignore this email.
`, otp, minutes)

	return Message{
		Recipient: recipient,
		Subject:   "Your verification code",
		Text:      textBody,
		HTML:      htmlBody,
	}
}

// resetMessage builds the password-reset email carrying the plaintext
// token inside the link.
func resetMessage(recipient, resetLink string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Reset your password</h1>
        <p>We received a request to reset your password. Click the link below to choose a new one:</p>
        <p><a href="%s" class="button">Reset Password</a></p>
        <p>Or copy and paste this link in your browser:<br>
        <code>%s</code></p>
        <p>The link expires in %d minutes. If you didn't request a reset, you can ignore this email and your password will stay unchanged.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, resetLink, resetLink, minutes)

	textBody := fmt.Sprintf(`Reset your password

We received a request to reset your password. Open this link to choose a new one:

%s

The link expires in %d minutes. If you didn't request a reset, you can ignore this email and your password will stay unchanged.
`, resetLink, minutes)

	return Message{
		Recipient: recipient,
		Subject:   "Reset your password",
		Text:      textBody,
		HTML:      htmlBody,
	}
}
