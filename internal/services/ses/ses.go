// Package ses provides email notification services via AWS SES
package ses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"scoring-engine/internal/models"
	"scoring-engine/internal/utils"
)

// ErrSenderNotConfigured is returned when SES_SENDER_EMAIL is empty.
var ErrSenderNotConfigured = errors.New("ses sender email is not configured")

// API is the subset of the SES client used by the service.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations
type Service struct {
	client    API
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// DecisionNotificationParams contains data for a loan decision email.
type DecisionNotificationParams struct {
	To           string
	Record       models.LoanRecord
	DashboardURL string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

// NewService creates a new SES service
func NewService(ctx context.Context, region, fromEmail string) (*Service, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(ses.NewFromConfig(cfg), fromEmail), nil
}

// NewWithClient creates a service around an existing client.
func NewWithClient(client API, fromEmail string) *Service {
	return &Service{client: client, fromEmail: fromEmail}
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	if s.fromEmail == "" {
		return nil, ErrSenderNotConfigured
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	utils.GetLogger().Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", messageID),
	)

	return &SendEmailResult{
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}

// SendDecisionNotification mails the outcome of a scored application.
func (s *Service) SendDecisionNotification(ctx context.Context, params DecisionNotificationParams) (*SendEmailResult, error) {
	view := newDecisionView(params)

	htmlBody, err := renderDecisionHTML(view)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       params.To,
		Subject:  view.Subject,
		HTMLBody: htmlBody,
		TextBody: renderDecisionText(view),
	})
}

type decisionView struct {
	Subject      string
	Verdict      string
	Approved     bool
	Preset       string
	RecordID     string
	Confidence   int
	RiskScore    int
	TotalScore   int
	LoanAmount   float64
	Factors      []string
	DashboardURL string
}

func newDecisionView(p DecisionNotificationParams) decisionView {
	d := p.Record.Decision

	verdict := "Not approved"
	if d.Approved {
		verdict = "Approved"
	}

	return decisionView{
		Subject:      fmt.Sprintf("Your loan application: %s (%d%% confidence)", strings.ToLower(verdict), d.ConfidencePercent),
		Verdict:      verdict,
		Approved:     d.Approved,
		Preset:       d.Preset,
		RecordID:     p.Record.ID,
		Confidence:   d.ConfidencePercent,
		RiskScore:    d.RiskScore,
		TotalScore:   d.TotalScore,
		LoanAmount:   p.Record.Application.LoanAmount,
		Factors:      d.Factors,
		DashboardURL: p.DashboardURL,
	}
}

var decisionTemplate = template.Must(template.New("decision_notification").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: white; padding: 30px; border-radius: 10px 10px 0 0; text-align: center; }
        .approved { background: #28a745; }
        .rejected { background: #dc3545; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .metric { display: inline-block; margin: 0 20px 10px 0; }
        .metric-label { font-size: 12px; color: #999; }
        .metric-value { font-weight: bold; }
        .cta-button { display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold; margin-top: 20px; }
        .footer { text-align: center; margin-top: 30px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header {{if .Approved}}approved{{else}}rejected{{end}}">
        <h1>{{.Verdict}}</h1>
        <p>Loan amount {{printf "%.2f" .LoanAmount}}</p>
    </div>
    <div class="content">
        <div class="metric"><div class="metric-label">Confidence</div><div class="metric-value">{{.Confidence}}%</div></div>
        <div class="metric"><div class="metric-label">Risk score</div><div class="metric-value">{{.RiskScore}}</div></div>
        <div class="metric"><div class="metric-label">Total score</div><div class="metric-value">{{.TotalScore}}</div></div>
        {{if .Factors}}
        <h3>Key factors</h3>
        <ul>
            {{range .Factors}}<li>{{.}}</li>
            {{end}}
        </ul>
        {{end}}
        {{if .DashboardURL}}
        <div style="text-align: center;">
            <a href="{{.DashboardURL}}" class="cta-button">View history</a>
        </div>
        {{end}}
    </div>
    <div class="footer">
        <p>Reference {{.RecordID}}{{if .Preset}} ({{.Preset}}){{end}}</p>
        <p>This is an automated assessment, not a credit decision.</p>
    </div>
</body>
</html>`))

func renderDecisionHTML(v decisionView) (string, error) {
	var buf bytes.Buffer
	if err := decisionTemplate.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderDecisionText(v decisionView) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Loan application: %s\n\n", v.Verdict))
	buf.WriteString(fmt.Sprintf("Loan amount: %.2f\n", v.LoanAmount))
	buf.WriteString(fmt.Sprintf("Confidence: %d%%\n", v.Confidence))
	buf.WriteString(fmt.Sprintf("Risk score: %d\n", v.RiskScore))
	buf.WriteString(fmt.Sprintf("Total score: %d\n\n", v.TotalScore))

	if len(v.Factors) > 0 {
		buf.WriteString("Key factors:\n")
		for i, f := range v.Factors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, f))
		}
		buf.WriteString("\n")
	}

	if v.DashboardURL != "" {
		buf.WriteString(fmt.Sprintf("View history: %s\n\n", v.DashboardURL))
	}

	buf.WriteString(fmt.Sprintf("Reference: %s\n", v.RecordID))
	return buf.String()
}
