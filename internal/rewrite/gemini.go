package rewrite

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `Act as a professional live stream scriptwriter.
Rewrite the following script content to make it more %s.
Keep the core message but improve flow, readability for speaking aloud, and audience engagement.
Do not add markdown formatting like **bold** or titles, just return the raw text ready for a teleprompter.

Script:
%s`

// Rewriter produces a rewritten version of script text
type Rewriter interface {
	Rewrite(ctx context.Context, text string, tone Tone) (string, error)
}

// GeminiRewriter rewrites scripts with the Gemini API
type GeminiRewriter struct {
	apiKey string
	model  string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// NewGeminiRewriter creates a rewriter. The client is created on first use.
func NewGeminiRewriter(apiKey, model string) *GeminiRewriter {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiRewriter{
		apiKey: apiKey,
		model:  model,
	}
}

// Model returns the configured model name
func (g *GeminiRewriter) Model() string {
	return g.model
}

// Rewrite asks the model to rewrite text in the given tone. An empty
// model response yields an empty string.
func (g *GeminiRewriter) Rewrite(ctx context.Context, text string, tone Tone) (string, error) {
	if g.apiKey == "" {
		return "", ErrAPIKeyMissing
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(text, tone)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	return responseText(resp), nil
}

func (g *GeminiRewriter) getClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if g.clientErr != nil {
			g.clientErr = fmt.Errorf("create gemini client: %w", g.clientErr)
		}
	})
	return g.client, g.clientErr
}

// BuildPrompt renders the rewrite instruction for a script
func BuildPrompt(text string, tone Tone) string {
	return fmt.Sprintf(promptTemplate, tone, text)
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
