package notifications

import (
	"context"

	"github.com/smarthomesolar/solarsite/internal/model"
)

// InquiryNotifier announces newly captured inquiries to the sales inbox.
type InquiryNotifier interface {
	NotifyInquiry(ctx context.Context, inquiry model.Inquiry) error
}

// NoopNotifier drops every notification.
type NoopNotifier struct{}

// NotifyInquiry does nothing.
func (NoopNotifier) NotifyInquiry(context.Context, model.Inquiry) error {
	return nil
}

// Resolve substitutes NoopNotifier for a nil notifier.
func Resolve(notifier InquiryNotifier) InquiryNotifier {
	if notifier == nil {
		return NoopNotifier{}
	}
	return notifier
}
