package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryProvider records intents locally. Tests and local development
// drive the outcome with SetStatus.
type InMemoryProvider struct {
	mu      sync.Mutex
	intents map[string]Intent
	created []CreatedIntent
}

type CreatedIntent struct {
	Intent      Intent
	AmountMinor int64
	Metadata    map[string]string
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{intents: make(map[string]Intent)}
}

func (p *InMemoryProvider) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	in := Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Currency:     strings.ToLower(currency),
	}
	p.intents[id] = in
	p.created = append(p.created, CreatedIntent{Intent: in, AmountMinor: amountMinor, Metadata: metadata})
	return in, nil
}

func (p *InMemoryProvider) GetIntent(_ context.Context, id string) (Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	in, ok := p.intents[id]
	if !ok {
		return Intent{}, ErrIntentNotFound
	}
	return in, nil
}

// SetStatus stores or overwrites an intent with the given outcome.
func (p *InMemoryProvider) SetStatus(id, status string, amountReceived int64, failure string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	in := p.intents[id]
	in.ID = id
	in.Status = status
	in.AmountReceived = amountReceived
	in.FailureMessage = failure
	p.intents[id] = in
}

func (p *InMemoryProvider) Created() []CreatedIntent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]CreatedIntent, len(p.created))
	copy(out, p.created)
	return out
}
