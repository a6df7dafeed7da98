package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoring-engine/internal/models"
)

type fakeSES struct {
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, in)
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func sampleRecord(approved bool) models.LoanRecord {
	return models.LoanRecord{
		ID:          "0190f1c2-0000-7000-8000-000000000001",
		Application: models.LoanApplication{LoanAmount: 150000},
		Decision: models.LoanDecision{
			Approved:          approved,
			ConfidencePercent: 95,
			RiskScore:         5,
			TotalScore:        115,
			Factors:           []string{"Excellent credit score", "Optimal age range"},
			Preset:            "canonical",
		},
	}
}

func TestSendDecisionNotification(t *testing.T) {
	fake := &fakeSES{}
	svc := NewWithClient(fake, "noreply@example.com")

	res, err := svc.SendDecisionNotification(context.Background(), DecisionNotificationParams{
		To:           "applicant@example.com",
		Record:       sampleRecord(true),
		DashboardURL: "https://example.com/history",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", res.MessageID)

	require.Len(t, fake.sent, 1)
	in := fake.sent[0]
	assert.Equal(t, "noreply@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"applicant@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Your loan application: approved (95% confidence)", aws.ToString(in.Message.Subject.Data))

	html := aws.ToString(in.Message.Body.Html.Data)
	assert.Contains(t, html, "Excellent credit score")
	assert.Contains(t, html, "https://example.com/history")
	assert.Contains(t, html, "class=\"header approved\"")

	text := aws.ToString(in.Message.Body.Text.Data)
	assert.Contains(t, text, "1. Excellent credit score")
	assert.Contains(t, text, "Total score: 115")
}

func TestSendDecisionNotification_Rejected(t *testing.T) {
	fake := &fakeSES{}
	svc := NewWithClient(fake, "noreply@example.com")

	_, err := svc.SendDecisionNotification(context.Background(), DecisionNotificationParams{
		To:     "applicant@example.com",
		Record: sampleRecord(false),
	})
	require.NoError(t, err)

	html := aws.ToString(fake.sent[0].Message.Body.Html.Data)
	assert.Contains(t, html, "Not approved")
	assert.NotContains(t, html, "View history")
}

func TestSendEmail_Errors(t *testing.T) {
	_, err := NewWithClient(&fakeSES{}, "").SendEmail(context.Background(), EmailParams{To: "a@b.com"})
	assert.ErrorIs(t, err, ErrSenderNotConfigured)

	_, err = NewWithClient(&fakeSES{err: errors.New("throttled")}, "x@y.com").SendEmail(context.Background(), EmailParams{To: "a@b.com"})
	assert.ErrorContains(t, err, "throttled")
}

func TestDecisionTemplateEscapesFactors(t *testing.T) {
	rec := sampleRecord(true)
	rec.Decision.Factors = []string{"<script>alert(1)</script>"}

	html, err := renderDecisionHTML(newDecisionView(DecisionNotificationParams{Record: rec}))
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}
