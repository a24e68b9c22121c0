package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridNotifier struct {
	client  *sendgrid.Client
	from    string
	support string
}

func NewSendGridNotifier(apiKey, from, support string) *SendGridNotifier {
	return &SendGridNotifier{
		client:  sendgrid.NewSendClient(apiKey),
		from:    from,
		support: support,
	}
}

func (s *SendGridNotifier) OrderPlaced(ctx context.Context, n OrderNotice) error {
	return s.send(ctx, renderOrderPlaced(n))
}

func (s *SendGridNotifier) ContactMessage(ctx context.Context, n ContactNotice) error {
	return s.send(ctx, renderContact(n, s.support))
}

func (s *SendGridNotifier) send(ctx context.Context, m message) error {
	msg := mail.NewSingleEmail(mail.NewEmail("Abaya Haven", s.from), m.Subject, mail.NewEmail("", m.To), m.Text, m.HTML)
	if m.ReplyTo != "" {
		msg.SetReplyTo(mail.NewEmail("", m.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
