// Package catalog fetches purchasable project listings through the
// same-origin relay.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ecotoken/storefront/types"
)

// Client reads the project catalog from the relay's /api/projects endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config configures the catalog client.
type Config struct {
	// BaseURL is the relay origin, e.g. "https://store.example.org" or a
	// deployment base path underneath it.
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client
}

// New creates a catalog client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// Projects returns the catalog. A non-2xx relay response is an error carrying
// the upstream status; no partial data is ever returned.
func (c *Client) Projects(ctx context.Context) ([]types.Project, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/projects", nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.StoreError{
			Code:    types.ErrCatalogUnavailable,
			Message: fmt.Sprintf("failed to fetch projects: %v", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.StoreError{
			Code:    types.ErrCatalogUnavailable,
			Message: fmt.Sprintf("failed to fetch projects: status %d", resp.StatusCode),
			Data:    resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	var list types.ProjectList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	return list.Projects, nil
}

// Find returns the project with the given ID, or an error when the catalog
// does not carry it.
func (c *Client) Find(ctx context.Context, projectID string) (*types.Project, error) {
	projects, err := c.Projects(ctx)
	if err != nil {
		return nil, err
	}

	for i := range projects {
		if projects[i].ID == projectID {
			return &projects[i], nil
		}
	}

	return nil, &types.StoreError{
		Code:    types.ErrProjectNotFound,
		Message: fmt.Sprintf("project not found: %s", projectID),
	}
}
