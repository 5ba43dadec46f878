package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/model"
)

const defaultOperationTimeout = 15 * time.Second

var (
	// ErrMissingResendAPIKey indicates the Resend API key was omitted.
	ErrMissingResendAPIKey = errors.New("notifications: resend api key is required")
	// ErrMissingSender indicates the From address was omitted.
	ErrMissingSender = errors.New("notifications: sender address is required")
	// ErrMissingRecipients indicates no sales inbox was configured.
	ErrMissingRecipients = errors.New("notifications: at least one recipient is required")
)

var inquiryEmailTemplate = template.Must(template.New("inquiry_email").Parse(`<h2>New solar inquiry from {{.Inquiry.FullName}}</h2>
<table>
<tr><td><strong>Email</strong></td><td>{{.Inquiry.Email}}</td></tr>
<tr><td><strong>Phone</strong></td><td>{{.Inquiry.Phone}}</td></tr>
{{- if .Inquiry.Service}}
<tr><td><strong>Service</strong></td><td>{{.Inquiry.Service}}</td></tr>
{{- end}}
{{- if .Inquiry.MonthlyBill}}
<tr><td><strong>Monthly bill</strong></td><td>{{.Inquiry.MonthlyBill}}</td></tr>
{{- end}}
{{- if .Inquiry.Address}}
<tr><td><strong>Address</strong></td><td>{{.Inquiry.Address}}</td></tr>
{{- end}}
</table>
<p>{{if .Inquiry.Message}}{{.Inquiry.Message}}{{else}}No message provided.{{end}}</p>
{{- if .DashboardURL}}
<p><a href="{{.DashboardURL}}">Open in the admin panel</a></p>
{{- end}}
`))

// EmailSender is the part of the Resend client used to deliver mail.
type EmailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendConfig captures Resend delivery settings.
type ResendConfig struct {
	APIKey           string
	From             string
	To               []string
	DashboardURL     string
	OperationTimeout time.Duration
}

// ResendNotifier mails new inquiries through Resend.
type ResendNotifier struct {
	logger           *zap.Logger
	sender           EmailSender
	from             string
	recipients       []string
	dashboardURL     string
	operationTimeout time.Duration
}

// NewResendNotifier creates a notifier backed by the Resend API.
func NewResendNotifier(logger *zap.Logger, cfg ResendConfig) (*ResendNotifier, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingResendAPIKey
	}
	return NewResendNotifierWithSender(logger, cfg, resend.NewClient(apiKey).Emails)
}

// NewResendNotifierWithSender creates a notifier that delivers through sender.
func NewResendNotifierWithSender(logger *zap.Logger, cfg ResendConfig, sender EmailSender) (*ResendNotifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, ErrMissingSender
	}
	recipients := make([]string, 0, len(cfg.To))
	for _, recipient := range cfg.To {
		trimmed := strings.TrimSpace(recipient)
		if trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	if len(recipients) == 0 {
		return nil, ErrMissingRecipients
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaultOperationTimeout
	}
	return &ResendNotifier{
		logger:           logger,
		sender:           sender,
		from:             from,
		recipients:       recipients,
		dashboardURL:     strings.TrimSpace(cfg.DashboardURL),
		operationTimeout: cfg.OperationTimeout,
	}, nil
}

// NotifyInquiry emails the sales inbox. The lead's address becomes the Reply-To.
func (notifier *ResendNotifier) NotifyInquiry(ctx context.Context, inquiry model.Inquiry) error {
	if notifier == nil || notifier.sender == nil {
		return errors.New("notifications: resend notifier not initialized")
	}

	var body bytes.Buffer
	templateData := struct {
		Inquiry      model.Inquiry
		DashboardURL string
	}{Inquiry: inquiry, DashboardURL: notifier.dashboardLink(inquiry.ID)}
	if err := inquiryEmailTemplate.Execute(&body, templateData); err != nil {
		return fmt.Errorf("notifications: render inquiry email: %w", err)
	}

	request := &resend.SendEmailRequest{
		From:    notifier.from,
		To:      notifier.recipients,
		Subject: inquirySubject(inquiry),
		Html:    body.String(),
		ReplyTo: inquiry.Email,
	}

	callCtx, cancel := context.WithTimeout(ctx, notifier.operationTimeout)
	defer cancel()

	sent, sendErr := notifier.sender.SendWithContext(callCtx, request)
	if sendErr != nil {
		notifier.logger.Warn("resend_send_failed", zap.Error(sendErr), zap.String("inquiry_id", inquiry.ID))
		return fmt.Errorf("notifications: resend send: %w", sendErr)
	}
	messageID := ""
	if sent != nil {
		messageID = sent.Id
	}
	notifier.logger.Info("inquiry_notification_sent", zap.String("inquiry_id", inquiry.ID), zap.String("message_id", messageID))
	return nil
}

func (notifier *ResendNotifier) dashboardLink(inquiryID string) string {
	if notifier.dashboardURL == "" || inquiryID == "" {
		return ""
	}
	return strings.TrimRight(notifier.dashboardURL, "/") + "/admin/dashboard?selected=" + inquiryID
}

func inquirySubject(inquiry model.Inquiry) string {
	if inquiry.Service == "" {
		return fmt.Sprintf("New inquiry: %s", inquiry.FullName())
	}
	return fmt.Sprintf("New inquiry: %s (%s)", inquiry.FullName(), inquiry.Service)
}
