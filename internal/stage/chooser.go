package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrNoSourceFile is returned by a FileChooser when no candidate implements
// the named template. Malformed chooser responses collapse to this same
// outcome: the flow ends rather than building an arbitrary file.
var ErrNoSourceFile = errors.New("no source file identified")

// NotFoundSentinel is the fixed response the completion service is instructed
// to return when no candidate fits.
const NotFoundSentinel = "not_found"

// FileChooser selects the main source file implementing a named template
// from a list of candidate paths.
//
// Implementations must select from the given candidates only. The production
// implementation delegates to a hosted text-completion service; tests use
// in-memory fakes.
type FileChooser interface {
	Choose(ctx context.Context, templateName string, candidates []string) (string, error)
}

// chooseInstruction is the contract handed to the completion service: pick
// exactly one path from the supplied list, echo it back verbatim, or answer
// with the sentinel.
const chooseInstruction = `You are given the name of a Dataflow template and a list of Java source file paths, one per line.
Respond with exactly the one path that implements the named template, byte-for-byte from the list. Do not add commentary.
If none of the files implements it, respond with exactly: %s

Template:
%s

Files:
%s`

// BuildChoosePrompt renders the instruction for one lookup.
func BuildChoosePrompt(templateName string, candidates []string) string {
	return fmt.Sprintf(chooseInstruction, NotFoundSentinel, templateName, strings.Join(candidates, "\n"))
}

// ParseChoice interprets a completion-service response. It strips code
// fences, recognizes the not-found sentinel, and otherwise demands a path
// from the candidate list. Any other response is ErrNoSourceFile; answers
// are checked against the list, never trusted.
func ParseChoice(response string, candidates []string) (string, error) {
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" || strings.EqualFold(text, NotFoundSentinel) {
		return "", ErrNoSourceFile
	}
	for _, c := range candidates {
		if c == text {
			return c, nil
		}
	}
	return "", ErrNoSourceFile
}

// GeminiChooser selects source files through a Gemini model on the Vertex AI
// backend. The client is constructed once by the process entry point and
// injected.
type GeminiChooser struct {
	client *genai.Client
	model  string
}

// NewGeminiChooser builds a chooser bound to the given project/location and
// model name.
func NewGeminiChooser(ctx context.Context, projectID, location, model string) (*GeminiChooser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  projectID,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiChooser{client: client, model: model}, nil
}

// Choose implements FileChooser. Transport errors propagate; a response that
// does not name a candidate is ErrNoSourceFile.
func (c *GeminiChooser) Choose(ctx context.Context, templateName string, candidates []string) (string, error) {
	prompt := BuildChoosePrompt(templateName, candidates)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("source file lookup request failed: %w", err)
	}
	return ParseChoice(resp.Text(), candidates)
}
