// Package settlement hands confirmed purchases to the fulfillment side
// through the same-origin ccep relay.
package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ecotoken/storefront/types"
)

// ReceiptClient POSTs transaction receipts to the relay, which re-signs the
// request with the server-held credential before forwarding it.
type ReceiptClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// Config configures the receipt client.
type Config struct {
	// BaseURL is the relay origin.
	BaseURL string
	// AuthToken is the client-side bearer value sent on the Authorization
	// header; the relay replaces it with the server credential downstream.
	AuthToken string
	Timeout   time.Duration

	HTTPClient *http.Client
}

// New creates a receipt client.
func New(cfg Config) *ReceiptClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &ReceiptClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authToken:  cfg.AuthToken,
		httpClient: httpClient,
	}
}

// Submit forwards a receipt once. There is no retry: by the time this is
// called the on-chain transfer has already happened, and a failure here is a
// reconciliation gap surfaced to the caller, not compensated.
func (c *ReceiptClient) Submit(ctx context.Context, receipt *types.Receipt) (*types.RelayResponse, error) {
	if err := receipt.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ccep", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build receipt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.StoreError{
			Code:    types.ErrRelayFailed,
			Message: fmt.Sprintf("failed to submit transaction details: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read relay response: %w", err)
	}

	var relayResp types.RelayResponse
	if len(body) > 0 {
		// Best effort decode; the error path below carries the raw body when
		// the relay returned something unparseable.
		_ = json.Unmarshal(body, &relayResp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := relayResp.Error
		if msg == "" {
			msg = string(body)
		}
		return nil, &types.StoreError{
			Code:    types.ErrRelayFailed,
			Message: fmt.Sprintf("failed to submit transaction details. Status: %d: %s", resp.StatusCode, msg),
			Data:    resp.StatusCode,
		}
	}

	return &relayResp, nil
}
