package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.PaymentProcessor = (*Client)(nil)

// A Client talks to the payment processor REST API.
//
// Server side it authenticates with the secret key. Buyers use Confirm
// with the intent client secret only.
type Client struct {
	baseURL   *url.URL
	secretKey string
	hc        *http.Client
}

func NewClient(baseURL, secretKey string, hc *http.Client) (*Client, error) {
	const op = "payment.NewClient"

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q is not absolute", op, baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: u, secretKey: secretKey, hc: hc}, nil
}

// CreateIntent uses the order id as idempotency key, so a retried call
// returns the intent created first.
func (c *Client) CreateIntent(
	ctx context.Context, orderID string,
	amount decimal.Decimal, currency string,
) (domain.PaymentIntent, error) {
	const op = "Client.CreateIntent"

	req := intentRequest{
		OrderID:  orderID,
		Amount:   amount.StringFixed(2),
		Currency: currency,
	}
	headers := http.Header{"Idempotency-Key": []string{orderID}}

	pi, err := c.doIntent(ctx, http.MethodPost, "v1/payment_intents", req, headers, true)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}
	return pi, nil
}

func (c *Client) ReadIntent(
	ctx context.Context, intentID string,
) (domain.PaymentIntent, error) {
	const op = "Client.ReadIntent"

	pi, err := c.doIntent(ctx, http.MethodGet, intentPath(intentID), nil, nil, true)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}
	return pi, nil
}

func (c *Client) CancelIntent(ctx context.Context, intentID string) error {
	const op = "Client.CancelIntent"

	_, err := c.doIntent(ctx, http.MethodPost, intentPath(intentID)+"/cancel", nil, nil, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Confirm charges the intent as the buyer would from the checkout page.
func (c *Client) Confirm(
	ctx context.Context, intentID, clientSecret, paymentMethod string,
) (domain.PaymentIntent, error) {
	const op = "Client.Confirm"

	req := confirmRequest{ClientSecret: clientSecret, PaymentMethod: paymentMethod}
	pi, err := c.doIntent(ctx, http.MethodPost, intentPath(intentID)+"/confirm", req, nil, false)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}
	return pi, nil
}

func intentPath(intentID string) string {
	return "v1/payment_intents/" + url.PathEscape(intentID)
}

func (c *Client) doIntent(
	ctx context.Context, method, path string, body any,
	headers http.Header, withSecret bool,
) (domain.PaymentIntent, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return domain.PaymentIntent{}, err
		}
		reader = bytes.NewReader(b)
	}

	ref := &url.URL{Path: path}
	req, err := http.NewRequestWithContext(
		ctx, method, c.baseURL.ResolveReference(ref).String(), reader,
	)
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if withSecret && c.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return domain.PaymentIntent{}, decodeError(res)
	}

	var ir intentResponse
	if err := json.NewDecoder(res.Body).Decode(&ir); err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("decode intent: %w", err)
	}
	return ir.toDomain()
}

func decodeError(res *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&er)

	pe := &ProcessorError{StatusCode: res.StatusCode, Message: er.Error}
	if res.StatusCode == http.StatusNotFound {
		return errors.Join(domain.ErrNotFound, pe)
	}
	return pe
}
