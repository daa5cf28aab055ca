// Package client is the REST client of the storefront API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/niksmo/artshop/internal/adapter/httphandler"
	"github.com/niksmo/artshop/internal/core/domain"
)

// An APIError is a non-success answer of the storefront API. Known
// answers also match the domain sentinel via errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Field, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// A TokenStore keeps the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type Client struct {
	baseURL *url.URL
	hc      *http.Client
	tokens  TokenStore
}

func New(baseURL string, tokens TokenStore, hc *http.Client) (*Client, error) {
	const op = "client.New"

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
	if tokens == nil {
		tokens = new(MemoryTokens)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: u, hc: hc, tokens: tokens}, nil
}

// do sends in as JSON and decodes the answer into out. Either may be nil.
func (c *Client) do(
	ctx context.Context, method, path string, query url.Values, in, out any,
) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	rel := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(
		ctx, method, c.baseURL.ResolveReference(rel).String(), body,
	)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(res)
		if res.StatusCode == http.StatusUnauthorized && token != "" {
			c.dropToken()
		}
		return apiErr
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// dropToken forgets a token the server no longer accepts, so the caller
// is treated as logged out.
func (c *Client) dropToken() {
	const op = "Client.dropToken"
	if err := c.tokens.Clear(); err != nil {
		slog.Warn("failed to clear token", "op", op, "err", err)
	}
}

var conflictSentinels = []error{
	domain.ErrCartVersionConflict,
	domain.ErrIllegalTransition,
	domain.ErrPaymentNotSettled,
	domain.ErrPaymentMissing,
	domain.ErrEmailTaken,
}

var badRequestSentinels = []error{
	domain.ErrInvalidQuantity,
	domain.ErrDuplicateItem,
	domain.ErrEmptyOrder,
	domain.ErrInvalidOTP,
}

func decodeError(res *http.Response) error {
	var er httphandler.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&er)
	apiErr := &APIError{StatusCode: res.StatusCode, Message: er.Error, Field: er.Field}

	switch res.StatusCode {
	case http.StatusBadRequest:
		if er.Field != "" {
			return errors.Join(domain.ValidationError{Field: er.Field, Msg: er.Error}, apiErr)
		}
		if s := matchSentinel(er.Error, badRequestSentinels); s != nil {
			return errors.Join(s, apiErr)
		}
	case http.StatusUnauthorized:
		if er.Error == domain.ErrInvalidCredentials.Error() {
			return errors.Join(domain.ErrInvalidCredentials, apiErr)
		}
		return errors.Join(domain.ErrUnauthorized, apiErr)
	case http.StatusForbidden:
		if er.Error == domain.ErrUserBlocked.Error() {
			return errors.Join(domain.ErrUserBlocked, apiErr)
		}
		return errors.Join(domain.ErrForbidden, apiErr)
	case http.StatusNotFound:
		if er.Error == domain.ErrItemNotInCart.Error() {
			return errors.Join(domain.ErrItemNotInCart, apiErr)
		}
		return errors.Join(domain.ErrNotFound, apiErr)
	case http.StatusConflict:
		if s := matchSentinel(er.Error, conflictSentinels); s != nil {
			return errors.Join(s, apiErr)
		}
	}
	return apiErr
}

func matchSentinel(msg string, sentinels []error) error {
	for _, s := range sentinels {
		if s.Error() == msg {
			return s
		}
	}
	return nil
}
