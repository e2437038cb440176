package catalog

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiMatcher resolves templates through a Gemini model on the Vertex AI
// backend. The client is constructed once by the process entry point and
// injected; nothing here initializes SDK state at package load.
type GeminiMatcher struct {
	client *genai.Client
	model  string
}

// NewGeminiMatcher builds a matcher bound to the given project/location and
// model name (e.g. "gemini-2.5-pro").
func NewGeminiMatcher(ctx context.Context, projectID, location, model string) (*GeminiMatcher, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  projectID,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiMatcher{client: client, model: model}, nil
}

// Match implements Matcher. Transport errors propagate; a response the
// service returns but that does not parse as a catalog entry is ErrNoMatch.
func (m *GeminiMatcher) Match(ctx context.Context, task string, cat *Catalog) (*Record, error) {
	catalogJSON, err := cat.JSON()
	if err != nil {
		return nil, err
	}

	prompt := BuildMatchPrompt(task, catalogJSON)
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("template lookup request failed: %w", err)
	}

	return ParseMatch(resp.Text(), cat)
}
