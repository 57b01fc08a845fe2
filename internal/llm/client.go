// Package llm implements the Google Gemini client used by the pipeline
// agents: single-turn text generation plus content embeddings.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/getmedsage/medsage/internal/metrics"
)

// Completer is the one operation the stage agents need from a language model:
// prompt in, text out. The concrete Client satisfies it; tests substitute
// canned responses.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultMaxTokens      = 4096
	defaultTimeout        = 60 * time.Second
)

// Config holds Gemini client settings. Zero values fall back to defaults;
// only APIKey is required.
type Config struct {
	APIKey            string
	Model             string
	EmbeddingModel    string
	Temperature       float64
	MaxOutputTokens   int
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client handles Gemini API calls for generation and embeddings.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	embeddingModel  string
	temperature     float64
	maxOutputTokens int
	timeout         time.Duration
	limiter         *rate.Limiter
	httpClient      *http.Client
	log             *slog.Logger
}

// NewClient creates a Gemini client from cfg.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key required (set GEMINI_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultEmbeddingModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         defaultBaseURL,
		model:           cfg.Model,
		embeddingModel:  cfg.EmbeddingModel,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		timeout:         cfg.Timeout,
		limiter:         rate.NewLimiter(limit, burst),
		httpClient:      http.DefaultClient,
		log:             log,
	}, nil
}

// Model returns the configured generation model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single-turn prompt and returns the model's text response.
// The configured per-call timeout bounds the whole exchange.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.generate(ctx, []Content{{Role: "user", Parts: []Part{{Text: prompt}}}})
	observe("generate", start, err)
	if err != nil {
		return "", err
	}

	var candidate *Candidate
	if len(resp.Candidates) > 0 {
		candidate = &resp.Candidates[0]
	}
	if isEmptyResponse(candidate) {
		return "", fmt.Errorf("empty model response: %s", describeEmptyResponse(candidate))
	}

	var texts []string
	for _, p := range candidate.Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	if usage := resp.UsageMetadata; usage != nil {
		c.log.Debug("gemini response",
			"model", c.model,
			"prompt_tokens", usage.PromptTokenCount,
			"output_tokens", usage.CandidatesTokenCount)
	}
	return strings.Join(texts, "\n"), nil
}

func (c *Client) generate(ctx context.Context, contents []Content) (*GenerateResponse, error) {
	req := GenerateRequest{
		Contents: contents,
		GenerationConfig: &GenerationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	}

	body, err := c.post(ctx, fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey), req)
	if err != nil {
		return nil, err
	}

	var result GenerateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// post sends a JSON request and returns the response body, waiting on the
// rate limiter first.
func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API error: %s - %s", resp.Status, string(body))
	}
	return body, nil
}

// isEmptyResponse reports whether the candidate carries no usable text.
func isEmptyResponse(c *Candidate) bool {
	if c == nil {
		return true
	}
	for _, p := range c.Content.Parts {
		if p.Text != "" {
			return false
		}
	}
	return true
}

// describeEmptyResponse explains why a candidate is empty, including any
// blocked safety categories so callers can see filter hits.
func describeEmptyResponse(c *Candidate) string {
	if c == nil {
		return "no candidate"
	}
	desc := fmt.Sprintf("finishReason=%s", c.FinishReason)
	for _, r := range c.SafetyRatings {
		if r.Blocked {
			desc += fmt.Sprintf(", %s=%s (blocked)", r.Category, r.Probability)
		}
	}
	return desc
}

func observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequests.WithLabelValues(operation, status).Inc()
	metrics.LLMRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
