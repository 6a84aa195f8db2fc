package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultHTTPTimeout = 60 * time.Second

// HTTP posts images to a local OCR service and reads {"text": "..."} back.
type HTTP struct {
	client    *resty.Client
	endpoint  string
	languages []string
}

var _ Recognizer = (*HTTP)(nil)

// HTTPOption customises an HTTP recognizer.
type HTTPOption func(*HTTP)

// WithTimeout bounds each recognition request.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		if timeout > 0 {
			h.client.SetTimeout(timeout)
		}
	}
}

// WithLanguages sends a language hint with every request.
func WithLanguages(languages ...string) HTTPOption {
	return func(h *HTTP) {
		h.languages = languages
	}
}

// WithRestyClient swaps in a preconfigured client.
func WithRestyClient(client *resty.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// NewHTTP returns a recognizer that POSTs to endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: endpoint,
		client: resty.New().
			SetTimeout(defaultHTTPTimeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type recognizeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Recognize implements Recognizer.
func (h *HTTP) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	var result recognizeResponse
	req := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(image).
		SetResult(&result)
	if len(h.languages) > 0 {
		req.SetQueryParam("lang", strings.Join(h.languages, "+"))
	}
	resp, err := req.Post(h.endpoint)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("ocr request failed with status %d: %s", resp.StatusCode(), resp.Status())
	}
	if result.Error != "" {
		return "", fmt.Errorf("ocr service: %s", result.Error)
	}
	return strings.TrimSpace(result.Text), nil
}
