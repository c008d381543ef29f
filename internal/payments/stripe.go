package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeClient talks to the Stripe payment-intents API with form-encoded
// requests. Construct it explicitly and inject it; there is no package-level
// instance.
type StripeClient struct {
	BaseURL   string
	Key       string
	ReturnURL string
	HTTP      *http.Client
}

type stripeIntentResp struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Error        *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *StripeClient) CreateIntent(ctx context.Context, amountCents int64, currency, paymentMethodID string, metadata map[string]string) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("payment_method", paymentMethodID)
	form.Set("confirm", "true")
	if c.ReturnURL != "" {
		form.Set("return_url", c.ReturnURL)
	}
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}
	return c.do(ctx, http.MethodPost, "/v1/payment_intents", form)
}

func (c *StripeClient) GetIntent(ctx context.Context, id string) (Intent, error) {
	return c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil)
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values) (Intent, error) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return Intent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Key)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Intent{}, err
	}
	defer resp.Body.Close()

	var out stripeIntentResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Intent{}, err
	}
	if out.Error != nil {
		return Intent{}, fmt.Errorf("stripe %s: %s", out.Error.Type, out.Error.Message)
	}
	if out.ID == "" {
		return Intent{}, fmt.Errorf("stripe: unexpected response (status %d)", resp.StatusCode)
	}
	return Intent{
		ID:           out.ID,
		ClientSecret: out.ClientSecret,
		Status:       out.Status,
		AmountCents:  out.Amount,
	}, nil
}
