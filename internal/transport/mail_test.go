package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notisub/internal/digest"
	"notisub/internal/model"
	"notisub/pkg/circuitbreaker"
)

type fakeMailAPI struct {
	sent []postmark.Email
	err  error
}

func (f *fakeMailAPI) SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	if f.err != nil {
		return postmark.EmailResponse{}, f.err
	}
	f.sent = append(f.sent, email)
	return postmark.EmailResponse{}, nil
}

func newTestMailTransport(api mailAPI) *MailTransport {
	return &MailTransport{
		client:  api,
		from:    "notifications@example.com",
		subject: "Your Notification Digest",
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		logger:  zap.NewNop(),
	}
}

func compiledSample() *digest.Digest {
	return digest.NewCompiler(digest.DefaultKinds()).Compile(
		&model.User{ID: 10, Email: "dana@example.com"},
		[]model.PendingNotification{
			{NotificationKind: "Update", Payload: json.RawMessage(`{"title":"a","message":"b"}`), CreatedAt: time.Now()},
		},
	)
}

func TestMailDigestSubjectAndBody(t *testing.T) {
	api := &fakeMailAPI{}
	tr := newTestMailTransport(api)

	sub := &model.Subscription{UserID: 10, Channel: ChannelMail, DigestInterval: model.IntervalDaily}
	err := tr.Send(context.Background(), &model.User{ID: 10, Email: "dana@example.com"}, sub, compiledSample())
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	sent := api.sent[0]
	assert.Equal(t, "dana@example.com", sent.To)
	assert.Equal(t, "Your Notification Digest", sent.Subject)
	assert.Contains(t, sent.TextBody, "Here is a summary of your recent notifications:")
	assert.Contains(t, sent.TextBody, "You can manage your notification preferences in your profile settings.")
	assert.NotEmpty(t, sent.HTMLBody)
}

func TestMailImmediateSubject(t *testing.T) {
	api := &fakeMailAPI{}
	tr := newTestMailTransport(api)

	sub := &model.Subscription{UserID: 10, Channel: ChannelMail, DigestInterval: model.IntervalImmediate}
	err := tr.Send(context.Background(), &model.User{ID: 10, Email: "dana@example.com"}, sub, compiledSample())
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	assert.Equal(t, "New notification: Update", api.sent[0].Subject)
}

func TestMailSendError(t *testing.T) {
	api := &fakeMailAPI{err: errors.New("timeout")}
	tr := newTestMailTransport(api)

	sub := &model.Subscription{UserID: 10, Channel: ChannelMail, DigestInterval: model.IntervalDaily}
	err := tr.Send(context.Background(), &model.User{ID: 10, Email: "dana@example.com"}, sub, compiledSample())
	assert.ErrorIs(t, err, ErrFailedToSendMail)
}

func TestMailPostmarkAPIError(t *testing.T) {
	api := &apiErrorMail{}
	tr := newTestMailTransport(api)

	sub := &model.Subscription{UserID: 10, Channel: ChannelMail, DigestInterval: model.IntervalDaily}
	err := tr.Send(context.Background(), &model.User{ID: 10, Email: "dana@example.com"}, sub, compiledSample())
	assert.ErrorIs(t, err, ErrFailedToSendMail)
}

type apiErrorMail struct{}

func (apiErrorMail) SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	return postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}, nil
}
