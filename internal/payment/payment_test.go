package payment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"online":           MethodOnline,
		"Online Payment":   MethodOnline,
		"cash_on_delivery": MethodCashOnDelivery,
		"Cash on Delivery": MethodCashOnDelivery,
	}
	for in, want := range cases {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMethod("barter")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, ValidStatus("requires_action"))
	assert.False(t, ValidStatus("shipped"))
	assert.True(t, IsSettled(StatusPaid))
	assert.True(t, IsSettled(StatusSucceeded))
	assert.False(t, IsSettled(StatusPending))
}

func TestIntentSnapshot(t *testing.T) {
	in := Intent{ID: "pi_1", Status: "requires_action", AmountReceived: 0, Currency: "pkr", FailureMessage: "card declined"}

	var got map[string]any
	require.NoError(t, json.Unmarshal(in.Snapshot(), &got))
	assert.Equal(t, "pi_1", got["payment_intent_id"])
	assert.Equal(t, "requires_action", got["provider_status"])
	assert.Equal(t, "card declined", got["error"])
}

func TestInMemoryProvider(t *testing.T) {
	ctx := context.Background()
	p := NewInMemoryProvider()

	in, err := p.CreateIntent(ctx, 12345, "PKR", map[string]string{"userId": "7"})
	require.NoError(t, err)
	assert.NotEmpty(t, in.ClientSecret)
	assert.Equal(t, "pkr", in.Currency)

	p.SetStatus(in.ID, StatusSucceeded, 12345, "")
	got, err := p.GetIntent(ctx, in.ID)
	require.NoError(t, err)
	assert.True(t, got.Succeeded())
	assert.Equal(t, in.ClientSecret, got.ClientSecret)

	created := p.Created()
	require.Len(t, created, 1)
	assert.Equal(t, int64(12345), created[0].AmountMinor)

	_, err = p.GetIntent(ctx, "pi_missing")
	assert.ErrorIs(t, err, ErrIntentNotFound)

	_, err = Unavailable{}.GetIntent(ctx, "x")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
