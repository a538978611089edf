// Package client is an HTTP client for the GreenWipe API. It implements
// poller.Backend so the verify CLI can drive a remote server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned by Anchor for unknown certificates
var ErrNotFound = errors.New("certificate not found")

// APIError is a non-success answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// Client talks to one GreenWipe server
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL, e.g. "http://localhost:8000"
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// SetToken sends a bearer token with every request
func (c *Client) SetToken(token string) *Client {
	c.http.SetAuthToken(token)
	return c
}

// Verify looks a certificate up. found is false for unknown ids.
func (c *Client) Verify(ctx context.Context, id string) (*service.CertificatePayload, bool, error) {
	var result envelope[*service.CertificatePayload]
	var failure envelope[any]

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&result).
		SetError(&failure).
		Get("/api/v1/certificates/{id}/verify")
	if err != nil {
		return nil, false, fmt.Errorf("verify request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, false, nil
	case resp.IsError():
		return nil, false, &APIError{StatusCode: resp.StatusCode(), Message: failure.Error}
	case result.Data == nil:
		return nil, false, &APIError{StatusCode: resp.StatusCode(), Message: "empty certificate"}
	}
	return result.Data, true, nil
}

// Anchor asks the server to anchor id and waits for the answer
func (c *Client) Anchor(ctx context.Context, id string) error {
	_, err := c.AnchorResult(ctx, id)
	return err
}

// AnchorResult anchors id and returns the transaction id
func (c *Client) AnchorResult(ctx context.Context, id string) (*service.AnchorResult, error) {
	var result envelope[*service.AnchorResult]
	var failure envelope[any]

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&result).
		SetError(&failure).
		Post("/api/v1/certificates/{id}/anchor")
	if err != nil {
		return nil, fmt.Errorf("anchor request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.IsError():
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: failure.Error}
	case result.Data == nil:
		return &service.AnchorResult{Success: result.Success}, nil
	}
	return result.Data, nil
}
