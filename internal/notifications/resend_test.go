package notifications_test

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/model"
	"github.com/smarthomesolar/solarsite/internal/notifications"
)

type recordingSender struct {
	requests []*resend.SendEmailRequest
	err      error
}

func (sender *recordingSender) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	sender.requests = append(sender.requests, params)
	if sender.err != nil {
		return nil, sender.err
	}
	return &resend.SendEmailResponse{Id: "msg-1"}, nil
}

func sampleInquiry() model.Inquiry {
	return model.Inquiry{
		ID:          "lead-1",
		FirstName:   "Asha",
		LastName:    "Mohanty",
		Email:       "asha@example.com",
		Phone:       "+91 75408 36582",
		Service:     "Hybrid Solar System",
		MonthlyBill: "$150-250",
		Message:     "<b>Call</b> after 6pm",
		Status:      model.InquiryStatusNew,
	}
}

func TestResendNotifierSendsInquiryEmail(testingT *testing.T) {
	sender := &recordingSender{}
	notifier, err := notifications.NewResendNotifierWithSender(zap.NewNop(), notifications.ResendConfig{
		From:         "leads@smarthomesolar.example",
		To:           []string{" sales@smarthomesolar.example ", ""},
		DashboardURL: "https://solar.example/",
	}, sender)
	require.NoError(testingT, err)

	require.NoError(testingT, notifier.NotifyInquiry(context.Background(), sampleInquiry()))
	require.Len(testingT, sender.requests, 1)

	request := sender.requests[0]
	require.Equal(testingT, "leads@smarthomesolar.example", request.From)
	require.Equal(testingT, []string{"sales@smarthomesolar.example"}, request.To)
	require.Equal(testingT, "New inquiry: Asha Mohanty (Hybrid Solar System)", request.Subject)
	require.Equal(testingT, "asha@example.com", request.ReplyTo)
	require.Contains(testingT, request.Html, "$150-250")
	require.Contains(testingT, request.Html, "&lt;b&gt;Call&lt;/b&gt; after 6pm")
	require.Contains(testingT, request.Html, "https://solar.example/admin/dashboard?selected=lead-1")
}

func TestResendNotifierReportsSendFailure(testingT *testing.T) {
	sender := &recordingSender{err: errors.New("rate limited")}
	notifier, err := notifications.NewResendNotifierWithSender(nil, notifications.ResendConfig{
		From: "leads@smarthomesolar.example",
		To:   []string{"sales@smarthomesolar.example"},
	}, sender)
	require.NoError(testingT, err)

	inquiry := sampleInquiry()
	inquiry.Message = ""
	sendErr := notifier.NotifyInquiry(context.Background(), inquiry)
	require.ErrorContains(testingT, sendErr, "rate limited")
	require.Contains(testingT, sender.requests[0].Html, "No message provided.")
	require.NotContains(testingT, sender.requests[0].Html, "admin/dashboard")
}

func TestResendNotifierValidatesConfiguration(testingT *testing.T) {
	_, err := notifications.NewResendNotifier(zap.NewNop(), notifications.ResendConfig{From: "a@b.c", To: []string{"d@e.f"}})
	require.ErrorIs(testingT, err, notifications.ErrMissingResendAPIKey)

	_, err = notifications.NewResendNotifierWithSender(zap.NewNop(), notifications.ResendConfig{To: []string{"d@e.f"}}, &recordingSender{})
	require.ErrorIs(testingT, err, notifications.ErrMissingSender)

	_, err = notifications.NewResendNotifierWithSender(zap.NewNop(), notifications.ResendConfig{From: "a@b.c", To: []string{" "}}, &recordingSender{})
	require.ErrorIs(testingT, err, notifications.ErrMissingRecipients)

	notifier, err := notifications.NewResendNotifier(zap.NewNop(), notifications.ResendConfig{APIKey: "re_test", From: "a@b.c", To: []string{"d@e.f"}})
	require.NoError(testingT, err)
	require.NotNil(testingT, notifier)
}

func TestResolveFallsBackToNoop(testingT *testing.T) {
	resolved := notifications.Resolve(nil)
	require.IsType(testingT, notifications.NoopNotifier{}, resolved)
	require.NoError(testingT, resolved.NotifyInquiry(context.Background(), sampleInquiry()))
}
