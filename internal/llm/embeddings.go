package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EmbedText returns the embedding vector for the given text using the
// configured embedding model. text-embedding-004 produces 768 dimensions.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := EmbedRequest{
		Model:   "models/" + c.embeddingModel,
		Content: Content{Parts: []Part{{Text: text}}},
	}

	start := time.Now()
	body, err := c.post(ctx, fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.embeddingModel, c.apiKey), req)
	observe("embed", start, err)
	if err != nil {
		return nil, err
	}

	var result EmbedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding model %s returned no values", c.embeddingModel)
	}
	return result.Embedding.Values, nil
}
