// Package openaiembed implements the warden.Embedder adapter for
// OpenAI-compatible embeddings APIs, including Azure OpenAI deployments.
package openaiembed

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
	defaultModel   = "text-embedding-3-small"
)

var _ warden.Embedder = (*Client)(nil)

// Client is an OpenAI embeddings adapter that implements warden.Embedder.
type Client struct {
	typ     string
	baseURL string
	model   string
	http    *http.Client
	hosting string // "", "azure"
}

// New creates an embeddings client for the direct OpenAI API. typ is the
// registry type identifier (e.g. "openai"). If baseURL is empty it defaults
// to "https://api.openai.com/v1"; if model is empty it defaults to
// "text-embedding-3-small". The provided client should have auth configured
// via its transport chain.
func New(typ, baseURL, model string, client *http.Client) *Client {
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
		typ:     typ,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    client,
	}
}

// NewWithHosting creates an embeddings client for a specific hosting
// platform. For hosting="azure", baseURL is the deployment URL and the model
// field is omitted from requests (the deployment pins it).
func NewWithHosting(typ, baseURL, model string, client *http.Client, hosting string) *Client {
	c := New(typ, baseURL, model, client)
	c.hosting = hosting
	return c
}

// Category returns warden.CategoryEmbedding.
func (c *Client) Category() warden.Category { return warden.CategoryEmbedding }

// Type returns the implementation identifier.
func (c *Client) Type() string { return c.typ }

// embeddingRequest is the POST /embeddings request body.
type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model,omitempty"`
}

// Embed requests an embedding for the input text.
func (c *Client) Embed(ctx context.Context, input string) ([]float32, error) {
	req := embeddingRequest{Input: input, Model: c.model}
	if c.hosting == "azure" {
		// Azure deployment URLs pin the model.
		req.Model = ""
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openaiembed: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openaiembed: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openaiembed: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ParseAPIError(c.typ, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openaiembed: read response: %w", err)
	}

	values := gjson.GetBytes(raw, "data.0.embedding").Array()
	if len(values) == 0 {
		return nil, fmt.Errorf("openaiembed: response has no embedding")
	}
	embedding := make([]float32, len(values))
	for i, v := range values {
		embedding[i] = float32(v.Float())
	}
	return embedding, nil
}

// HealthCheck verifies connectivity. For Azure deployments the models
// endpoint is unavailable, so only reachability is checked.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.hosting == "azure" {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
		if err != nil {
			return fmt.Errorf("openaiembed: create health check request: %w", err)
		}
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return fmt.Errorf("openaiembed: health check: %w", err)
		}
		resp.Body.Close()
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("openaiembed: create health check request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("openaiembed: health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return provider.ParseAPIError(c.typ, resp)
	}
	return nil
}
