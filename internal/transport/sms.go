package transport

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"notisub/contracts/mq"
	"notisub/internal/digest"
	"notisub/internal/model"
)

type publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// SMSTransport hands digests to the SMS gateway via the message queue; the
// gateway worker owns provider communication and retries.
type SMSTransport struct {
	publisher publisher
	logger    *zap.Logger
}

func NewSMSTransport(pub publisher, logger *zap.Logger) *SMSTransport {
	return &SMSTransport{
		publisher: pub,
		logger:    logger,
	}
}

func (t *SMSTransport) Send(ctx context.Context, recipient *model.User, sub *model.Subscription, d *digest.Digest) error {
	if recipient.Phone == "" {
		t.logger.Warn("sms recipient has no phone number, skipping",
			zap.Int64("user_id", recipient.ID))
		return nil
	}

	return t.publisher.PublishWithContext(ctx, "sms.send", mq.SMSSendPayload{
		UserID: recipient.ID,
		Phone:  recipient.Phone,
		Text:   smsText(d),
	})
}

// smsText renders the compact SMS body: structured components collapse to
// their text, without the mail intro and footer.
func smsText(d *digest.Digest) string {
	var lines []string
	for _, c := range d.Components {
		switch c.Type {
		case digest.ComponentLine, digest.ComponentHeading, digest.ComponentPanel:
			lines = append(lines, c.Text)
		case digest.ComponentButton:
			lines = append(lines, fmt.Sprintf("%s: %s", c.Text, c.URL))
		case digest.ComponentList:
			lines = append(lines, c.Items...)
		}
	}
	return strings.Join(lines, "\n")
}
