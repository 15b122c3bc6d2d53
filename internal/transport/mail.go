package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
	"go.uber.org/zap"

	"notisub/internal/digest"
	"notisub/internal/model"
	"notisub/pkg/circuitbreaker"
	"notisub/pkg/config"
)

var ErrFailedToSendMail = errors.New("failed to send mail")

// mailAPI matches the slice of the Postmark client the transport uses.
type mailAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// MailTransport delivers digests over Postmark. Sends run behind a circuit
// breaker so a failing provider degrades quickly instead of stalling the
// digest run.
type MailTransport struct {
	client  mailAPI
	from    string
	subject string
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewMailTransport(cfg config.PostmarkConfig, digestSubject string, logger *zap.Logger) (*MailTransport, error) {
	if cfg.ServerToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("postmark sender email is required")
	}
	return &MailTransport{
		client:  postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:    cfg.SenderEmail,
		subject: digestSubject,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		logger:  logger,
	}, nil
}

func (t *MailTransport) Send(ctx context.Context, recipient *model.User, sub *model.Subscription, d *digest.Digest) error {
	subject := t.subject
	if sub.DigestInterval == model.IntervalImmediate && len(d.Entries) == 1 {
		subject = "New notification: " + d.Entries[0].Kind
	}

	email := postmark.Email{
		From:     t.from,
		To:       recipient.Email,
		Subject:  subject,
		TextBody: RenderText(d),
		HTMLBody: RenderHTML(d),
	}

	err := t.breaker.Execute(func() error {
		resp, err := t.client.SendEmail(ctx, email)
		if err != nil {
			return err
		}
		if resp.ErrorCode > 0 {
			return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
		}
		return nil
	})
	if err != nil {
		t.logger.Error("mail send failed",
			zap.Int64("user_id", recipient.ID),
			zap.Error(err))
		return errors.Join(ErrFailedToSendMail, err)
	}
	return nil
}
