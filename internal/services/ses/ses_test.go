package ses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/ses"
)

type fakeSender struct {
	inputs []*awsses.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(_ context.Context, params *awsses.SendEmailInput, _ ...func(*awsses.Options)) (*awsses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &awsses.SendEmailOutput{MessageId: aws.String("msg-123")}, nil
}

func ineligibleReport() *models.EligibilityResponse {
	return &models.EligibilityResponse{
		EligibilityVerdict: models.EligibilityVerdict{
			Eligible:        false,
			MonthlyEMI:      10747,
			FOIR:            0.61,
			MaxEligibleLoan: 6000000,
			Reasons:         []string{"EMI exceeds 40% of monthly income"},
		},
		InterestRate: 10.5,
	}
}

func TestService_SendEligibilityReport(t *testing.T) {
	sender := &fakeSender{}
	svc := ses.NewServiceWithClient(sender, "loans@example.com", zap.NewNop())

	err := svc.SendEligibilityReport(context.Background(), "applicant@example.com", ineligibleReport())
	require.NoError(t, err)
	require.Len(t, sender.inputs, 1)

	input := sender.inputs[0]
	assert.Equal(t, "loans@example.com", aws.ToString(input.Source))
	assert.Equal(t, []string{"applicant@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Your loan eligibility result: not eligible", aws.ToString(input.Message.Subject.Data))

	text := aws.ToString(input.Message.Body.Text.Data)
	assert.Contains(t, text, "Monthly EMI: 10747")
	assert.Contains(t, text, "Interest rate: 10.50% p.a.")
	assert.Contains(t, text, "- EMI exceeds 40% of monthly income")

	html := aws.ToString(input.Message.Body.Html.Data)
	assert.Contains(t, html, "<li>EMI exceeds 40% of monthly income</li>")
	assert.Contains(t, html, "6000000")
}

func TestService_SendEligibilityReportEligible(t *testing.T) {
	sender := &fakeSender{}
	svc := ses.NewServiceWithClient(sender, "loans@example.com", zap.NewNop())

	report := ineligibleReport()
	report.Eligible = true
	report.Reasons = []string{}

	require.NoError(t, svc.SendEligibilityReport(context.Background(), "applicant@example.com", report))
	assert.Equal(t, "Your loan eligibility result: eligible", aws.ToString(sender.inputs[0].Message.Subject.Data))
	assert.NotContains(t, aws.ToString(sender.inputs[0].Message.Body.Text.Data), "Reasons:")
}

func TestService_SendEmailError(t *testing.T) {
	sender := &fakeSender{err: errors.New("throttled")}
	svc := ses.NewServiceWithClient(sender, "loans@example.com", zap.NewNop())

	_, err := svc.SendEmail(context.Background(), ses.EmailParams{To: "a@example.com", Subject: "hi", TextBody: "x"})
	assert.ErrorContains(t, err, "throttled")
}
