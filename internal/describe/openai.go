package describe

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	openaiClient "github.com/sashabaranov/go-openai"
)

// OpenAI completes prompts against any OpenAI-compatible chat endpoint,
// including Google's Gemini compatibility endpoint.
type OpenAI struct {
	client *openaiClient.Client
	model  string
}

// NewOpenAI creates a client. An empty baseURL keeps the library default.
func NewOpenAI(apiKey, baseURL, model string, httpClient *http.Client) *OpenAI {
	clientConfig := openaiClient.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	return &OpenAI{
		client: openaiClient.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openaiClient.ChatCompletionRequest{
		Model: o.model,
		Messages: []openaiClient.ChatCompletionMessage{{
			Role:    openaiClient.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Model implements Completer.
func (o *OpenAI) Model() string { return o.model }
