package describe

import (
	"context"
	"net/http"
	"strings"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

// DefaultMaxTokens bounds Anthropic responses.
const DefaultMaxTokens = 4096

// Anthropic completes prompts with the Anthropic Messages API.
type Anthropic struct {
	client anthropicSDK.Client
	model  string
}

// NewAnthropic creates a client. The SDK's automatic retries are disabled;
// a failed call falls back to the template like every other failure.
func NewAnthropic(apiKey, baseURL, model string, httpClient *http.Client) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &Anthropic{
		client: anthropicSDK.NewClient(opts...),
		model:  model,
	}
}

// Complete sends prompt as a single user message and joins the text blocks
// of the reply.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(a.model),
		MaxTokens: DefaultMaxTokens,
		Messages: []anthropicSDK.MessageParam{{
			Role:    anthropicSDK.MessageParamRoleUser,
			Content: []anthropicSDK.ContentBlockParamUnion{anthropicSDK.NewTextBlock(prompt)},
		}},
	})
	if err != nil {
		return "", errors.Wrap(err, "anthropic messages")
	}
	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// Model implements Completer.
func (a *Anthropic) Model() string { return a.model }
