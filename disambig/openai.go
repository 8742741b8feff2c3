package disambig

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a cyber threat intelligence entity resolver. " +
	"Decide whether a raw artifact value refers to the same real-world entity as one of the known candidates. " +
	"Aliases, common misspellings, and vendor naming variants count as matches; merely related entities do not. " +
	`Respond with a single JSON object: {"is_match": boolean, "matched_id": string, "normalized_name": string}. ` +
	`When nothing matches, respond {"is_match": false}.`

// Config configures the OpenAI-backed resolver.
type Config struct {
	// APIKey authenticates against the API. Required.
	APIKey string

	// Model selects the chat model. Defaults to gpt-4o-mini.
	Model string

	// BaseURL overrides the API endpoint, for proxies and compatible
	// providers.
	BaseURL string

	// Timeout bounds each resolution call. Defaults to 20s.
	Timeout time.Duration
}

// OpenAI implements Resolver using the chat completions API.
type OpenAI struct {
	client *openai.Client
	config Config
}

var _ Resolver = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI resolver.
func NewOpenAI(config Config) (*OpenAI, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Resolve asks the model whether value matches one of the candidates. A
// returned error means the verdict is unusable, not that the value is new.
func (o *OpenAI) Resolve(ctx context.Context, value, typeName string, candidates []Candidate) (Resolution, error) {
	if len(candidates) == 0 {
		return Resolution{}, nil
	}

	model := o.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	timeout := o.config.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(value, typeName, candidates),
			},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Resolution{}, fmt.Errorf("no response from OpenAI")
	}

	return parseResolution(resp.Choices[0].Message.Content, candidates)
}

// buildPrompt lists the value and every candidate with its ID so the
// model can answer with an exact matched_id.
func buildPrompt(value, typeName string, candidates []Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Is '%s' (%s) essentially the same as any of these?\n", value, typeName)
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s (ID: %s)\n", c.Name, c.ID)
	}
	return b.String()
}

// parseResolution decodes the model's JSON verdict and validates it
// against the offered candidates. A matched_id the model invented is an
// error so the caller falls back to "new".
func parseResolution(content string, candidates []Candidate) (Resolution, error) {
	var res Resolution
	if err := json.Unmarshal([]byte(stripFences(content)), &res); err != nil {
		return Resolution{}, fmt.Errorf("failed to parse resolution: %w", err)
	}

	if !res.IsMatch {
		return Resolution{}, nil
	}

	for _, c := range candidates {
		if c.ID == res.MatchedID {
			if res.NormalizedName == "" {
				res.NormalizedName = c.Name
			}
			return res, nil
		}
	}
	return Resolution{}, fmt.Errorf("resolution named unknown candidate %q", res.MatchedID)
}

// stripFences removes a markdown code fence wrapper, which some
// OpenAI-compatible providers add even in JSON mode.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}
