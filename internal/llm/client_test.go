package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/getmedsage/medsage/internal/logger"
)

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:          "test-key",
		baseURL:         baseURL,
		model:           "test-model",
		embeddingModel:  "test-embed",
		temperature:     0.7,
		maxOutputTokens: 4096,
		timeout:         5 * time.Second,
		limiter:         rate.NewLimiter(rate.Inf, 1),
		httpClient:      http.DefaultClient,
		log:             logger.Discard(),
	}
}

func TestIsEmptyResponse_Nil(t *testing.T) {
	assert.True(t, isEmptyResponse(nil))
}

func TestIsEmptyResponse_EmptyParts(t *testing.T) {
	c := &Candidate{Content: Content{Parts: []Part{}}}
	assert.True(t, isEmptyResponse(c))
}

func TestIsEmptyResponse_WithText(t *testing.T) {
	c := &Candidate{Content: Content{Parts: []Part{{Text: "hello"}}}}
	assert.False(t, isEmptyResponse(c))
}

func TestIsEmptyResponse_OnlyEmptyParts(t *testing.T) {
	c := &Candidate{Content: Content{Parts: []Part{{}, {}}}}
	assert.True(t, isEmptyResponse(c))
}

func TestDescribeEmptyResponse_Nil(t *testing.T) {
	assert.Equal(t, "no candidate", describeEmptyResponse(nil))
}

func TestDescribeEmptyResponse_WithFinishReason(t *testing.T) {
	c := &Candidate{FinishReason: "STOP"}
	assert.Equal(t, "finishReason=STOP", describeEmptyResponse(c))
}

func TestDescribeEmptyResponse_WithBlockedSafety(t *testing.T) {
	c := &Candidate{
		FinishReason: "SAFETY",
		SafetyRatings: []SafetyRating{
			{Category: "HARM_CATEGORY_DANGEROUS", Probability: "HIGH", Blocked: true},
			{Category: "HARM_CATEGORY_HARASSMENT", Probability: "NEGLIGIBLE"},
		},
	}
	result := describeEmptyResponse(c)
	assert.Contains(t, result, "finishReason=SAFETY")
	assert.Contains(t, result, "HARM_CATEGORY_DANGEROUS=HIGH (blocked)")
	assert.NotContains(t, result, "HARASSMENT")
}

func TestComplete_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Contains(t, r.URL.Path, "/models/test-model:generateContent")

		resp := GenerateResponse{
			Candidates: []Candidate{{
				Content:      Content{Parts: []Part{{Text: "Dengue Fever (85%)"}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: &UsageMetadata{
				PromptTokenCount:     100,
				CandidatesTokenCount: 50,
				TotalTokenCount:      150,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	text, err := c.Complete(context.Background(), "diagnose")

	require.NoError(t, err)
	assert.Equal(t, "Dengue Fever (85%)", text)
}

func TestComplete_JoinsMultipleParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := GenerateResponse{
			Candidates: []Candidate{{
				Content: Content{Parts: []Part{{Text: "first"}, {Text: "second"}}},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	text, err := testClient(ts.URL).Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", text)
}

func TestComplete_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini API error")
	assert.Contains(t, err.Error(), "429")
}

func TestComplete_NoCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GenerateResponse{})
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty model response")
	assert.Contains(t, err.Error(), "no candidate")
}

func TestComplete_SafetyBlocked(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := GenerateResponse{
			Candidates: []Candidate{{
				FinishReason: "SAFETY",
				SafetyRatings: []SafetyRating{
					{Category: "HARM_CATEGORY_MEDICAL", Probability: "HIGH", Blocked: true},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HARM_CATEGORY_MEDICAL=HIGH (blocked)")
}

func TestGenerate_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).generate(context.Background(), []Content{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(ts.URL).generate(ctx, []Content{})
	require.Error(t, err)
}

func TestGenerate_SendsGenerationConfig(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, 0.7, req.GenerationConfig.Temperature)
		assert.Equal(t, 4096, req.GenerationConfig.MaxOutputTokens)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)

		resp := GenerateResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "ok"}}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).generate(context.Background(), []Content{{Role: "user", Parts: []Part{{Text: "test"}}}})
	require.NoError(t, err)
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Config{APIKey: "test-key"}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", c.Model())
	assert.Equal(t, "text-embedding-004", c.embeddingModel)
	assert.Equal(t, 60*time.Second, c.timeout)
}

func TestEmbedText_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/models/test-embed:embedContent")

		var req EmbedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "models/test-embed", req.Model)

		resp := EmbedResponse{Embedding: Embedding{Values: []float32{0.1, -0.2, 0.3}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	values, err := testClient(ts.URL).EmbedText(context.Background(), "fever, cough")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, -0.2, 0.3}, values)
}

func TestEmbedText_EmptyVector(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbedResponse{})
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).EmbedText(context.Background(), "fever")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no values")
}
