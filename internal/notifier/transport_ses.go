// internal/notifier/transport_ses.go
package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/config"
)

// SESService is the subset of the SES client used here, extracted for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESTransport sends through Amazon SES.
type SESTransport struct {
	client SESService
	from   string
}

func NewSESTransport(ctx context.Context, cfg config.MailConfig) (*SESTransport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SES.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESTransport{
		client: ses.NewFromConfig(awsCfg),
		from:   cfg.From,
	}, nil
}

func (t *SESTransport) Send(ctx context.Context, to, subject, body string) error {
	_, err := t.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(t.from),
	})
	if err != nil {
		return fmt.Errorf("SES send failed: %w", err)
	}
	return nil
}
