package ses

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/techsum/newsletter-api/internal/platform/config"
)

const welcomeSubject = "Welcome to the TechSum Newsletter!"

// Minimal inline template; the real page styling lives with the static site.
const welcomeHTMLFormat = `<html><body>
<h2>Welcome to TechSum</h2>
<p>You're on the list. Expect a concise tech digest in your inbox.</p>
<p style="font-size:12px;color:#888">Didn't sign up, or changed your mind?
<a href="%s?email=%s">Unsubscribe here</a>.</p>
</body></html>`

// Mailer sends the welcome notification through AWS SES v2.
type Mailer struct {
	client         *sesv2.Client
	sender         string
	senderName     string
	unsubscribeURL string
}

// NewMailer builds an SES client with static credentials from config.
func NewMailer(ctx context.Context, cfg appconfig.SESConfig) (*Mailer, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Mailer{
		client:         sesv2.NewFromConfig(awsCfg),
		sender:         cfg.Sender,
		senderName:     cfg.SenderName,
		unsubscribeURL: cfg.UnsubscribeURL,
	}, nil
}

func (m *Mailer) SendWelcome(ctx context.Context, email string) error {
	html := fmt.Sprintf(welcomeHTMLFormat, m.unsubscribeURL, url.QueryEscape(email))
	from := m.sender
	if m.senderName != "" {
		from = fmt.Sprintf("%q <%s>", m.senderName, m.sender)
	}

	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(welcomeSubject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending welcome email to %s: %w", email, err)
	}
	return nil
}
