// Package payments wraps the external payment gateway.
package payments

import "context"

const StatusSucceeded = "succeeded"

// Intent is a gateway-side payment attempt. Status carries the gateway's own
// vocabulary; callers should only rely on Succeeded.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
}

func (i Intent) Succeeded() bool { return i.Status == StatusSucceeded }

type Gateway interface {
	// CreateIntent charges amountCents against the payment method and
	// returns the resulting intent.
	CreateIntent(ctx context.Context, amountCents int64, currency, paymentMethodID string, metadata map[string]string) (Intent, error)
	// GetIntent fetches the current state of an intent by id.
	GetIntent(ctx context.Context, id string) (Intent, error)
}
