// Package ses emails eligibility reports to applicants via AWS SES.
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/utils"
)

const charset = "UTF-8"

// SendAPI is the subset of the SES client the service uses.
type SendAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations.
type Service struct {
	client    SendAPI
	fromEmail string
	logger    *zap.Logger
}

// EmailParams represents parameters for sending an email.
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// SendEmailResult contains the result of sending an email.
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service from the default AWS credential chain.
func NewService(ctx context.Context, region, fromEmail string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewServiceWithClient(ses.NewFromConfig(cfg), fromEmail, nil), nil
}

// NewServiceWithClient creates a service over an existing client.
func NewServiceWithClient(client SendAPI, fromEmail string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Service{
		client:    client,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

// SendEmail sends a basic email.
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String(charset),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String(charset),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String(charset),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	s.logger.Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("messageId", messageID),
	)

	return &SendEmailResult{
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}

// SendEligibilityReport emails the verdict of an eligibility check.
func (s *Service) SendEligibilityReport(ctx context.Context, to string, report *models.EligibilityResponse) error {
	htmlBody, err := renderReportHTML(report)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := "Your loan eligibility result: not eligible"
	if report.Eligible {
		subject = "Your loan eligibility result: eligible"
	}

	_, err = s.SendEmail(ctx, EmailParams{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: renderReportText(report),
	})
	return err
}

var reportTemplate = template.Must(template.New("eligibility_report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
    <h2>{{if .Eligible}}You are eligible for this loan{{else}}You are not eligible for this loan yet{{end}}</h2>
    <table>
        <tr><td>Monthly EMI</td><td><strong>{{.MonthlyEMI}}</strong></td></tr>
        <tr><td>Interest rate</td><td>{{printf "%.2f" .InterestRate}}% p.a.</td></tr>
        <tr><td>FOIR</td><td>{{printf "%.2f" .FOIR}}</td></tr>
        <tr><td>Maximum eligible loan</td><td>{{.MaxEligibleLoan}}</td></tr>
    </table>
    {{if .Reasons}}
    <h3>Why</h3>
    <ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul>
    {{end}}
</body>
</html>`))

func renderReportHTML(report *models.EligibilityResponse) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderReportText(report *models.EligibilityResponse) string {
	var b strings.Builder

	if report.Eligible {
		b.WriteString("You are eligible for this loan.\n\n")
	} else {
		b.WriteString("You are not eligible for this loan yet.\n\n")
	}
	fmt.Fprintf(&b, "Monthly EMI: %d\n", report.MonthlyEMI)
	fmt.Fprintf(&b, "Interest rate: %.2f%% p.a.\n", report.InterestRate)
	fmt.Fprintf(&b, "FOIR: %.2f\n", report.FOIR)
	fmt.Fprintf(&b, "Maximum eligible loan: %d\n", report.MaxEligibleLoan)

	if len(report.Reasons) > 0 {
		b.WriteString("\nReasons:\n")
		for _, reason := range report.Reasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
	}

	return b.String()
}
