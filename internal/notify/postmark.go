package notify

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"
)

type PostmarkNotifier struct {
	client  *postmark.Client
	from    string
	support string
}

func NewPostmarkNotifier(serverToken, from, support string) *PostmarkNotifier {
	return &PostmarkNotifier{
		client:  postmark.NewClient(serverToken, ""),
		from:    from,
		support: support,
	}
}

func (p *PostmarkNotifier) OrderPlaced(_ context.Context, n OrderNotice) error {
	return p.send(renderOrderPlaced(n))
}

func (p *PostmarkNotifier) ContactMessage(_ context.Context, n ContactNotice) error {
	return p.send(renderContact(n, p.support))
}

func (p *PostmarkNotifier) send(m message) error {
	_, err := p.client.SendEmail(postmark.Email{
		From:     p.from,
		To:       m.To,
		ReplyTo:  m.ReplyTo,
		Subject:  m.Subject,
		HtmlBody: m.HTML,
		TextBody: m.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
