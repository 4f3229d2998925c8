// Package openaimod implements the warden.ContentSafety adapter for the
// OpenAI moderations API.
package openaimod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/provider"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "omni-moderation-latest"
	providerType   = "openai-moderation"
)

var _ warden.ContentSafety = (*Client)(nil)

// Client is an OpenAI moderations adapter that implements
// warden.ContentSafety.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// New creates an OpenAI moderation client. If baseURL is empty it defaults
// to "https://api.openai.com/v1"; if model is empty it defaults to
// "omni-moderation-latest". The provided client should have auth configured
// via its transport chain.
func New(baseURL, model string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    client,
	}
}

// Category returns warden.CategoryContentSafety.
func (c *Client) Category() warden.Category { return warden.CategoryContentSafety }

// Type returns the implementation identifier.
func (c *Client) Type() string { return providerType }

// moderationRequest is the POST /moderations request body.
type moderationRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

// Analyze sends the text to the moderations endpoint. The backend makes the
// flagged decision itself; per-category probabilities are passed through as
// scores.
func (c *Client) Analyze(ctx context.Context, text string) (*warden.SafetyVerdict, error) {
	body, err := json.Marshal(moderationRequest{Input: text, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("openaimod: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/moderations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openaimod: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openaimod: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ParseAPIError(providerType, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openaimod: read response: %w", err)
	}

	result := gjson.GetBytes(raw, "results.0")
	if !result.Exists() {
		return nil, fmt.Errorf("openaimod: response has no results")
	}

	verdict := &warden.SafetyVerdict{
		Flagged: result.Get("flagged").Bool(),
		Scores:  make(map[string]float64),
	}
	result.Get("category_scores").ForEach(func(key, value gjson.Result) bool {
		verdict.Scores[key.String()] = value.Float()
		return true
	})
	return verdict, nil
}

// HealthCheck verifies connectivity by moderating a short probe text.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Analyze(ctx, "ping")
	return err
}
