package client

import (
	"bytes"
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/podiumlabs/orator_service/internal/errors"
)

// OpenAIClient wraps the OpenAI API client. The same client type serves both the
// Whisper transcription endpoint and any OpenAI-compatible chat completions
// gateway, selected by base URL.
type OpenAIClient struct {
	client          *openai.Client
	model           string
	transcribeModel string
}

// NewOpenAIClient creates a client against api.openai.com.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client:          openai.NewClient(apiKey),
		model:           openai.GPT4oMini,
		transcribeModel: openai.Whisper1,
	}
}

// NewOpenAIClientWithBaseURL creates a client against an OpenAI-compatible
// gateway endpoint.
func NewOpenAIClientWithBaseURL(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIClient{
		client:          openai.NewClientWithConfig(cfg),
		model:           openai.GPT4oMini,
		transcribeModel: openai.Whisper1,
	}
}

// WithModel sets the chat model to use.
func (c *OpenAIClient) WithModel(model string) *OpenAIClient {
	c.model = model
	return c
}

// WithTranscriptionModel sets the transcription model to use.
func (c *OpenAIClient) WithTranscriptionModel(model string) *OpenAIClient {
	c.transcribeModel = model
	return c
}

// Transcribe sends raw audio bytes to the Whisper transcription endpoint and
// returns the plain-text transcript. The filename tells the provider which
// container format to assume. A non-success provider response is terminal.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
		Language: language,
	})
	if err != nil {
		status, msg := providerStatus(err)
		return "", errors.TranscriptionFailed(status, msg)
	}
	return resp.Text, nil
}

// ChatWithSystem sends a system+user message pair and returns the raw model
// reply. Provider HTTP status codes are mapped onto the analysis error
// taxonomy (429 rate limit, 402 billing, otherwise generic provider error).
func (c *OpenAIClient) ChatWithSystem(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		status, msg := providerStatus(err)
		return "", errors.ProviderError(status, msg)
	}

	if len(resp.Choices) == 0 {
		return "", errors.ProviderError(0, "provider returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// providerStatus recovers the HTTP status and message from a go-openai error.
func providerStatus(err error) (int, string) {
	switch e := err.(type) {
	case *openai.APIError:
		return e.HTTPStatusCode, e.Message
	case *openai.RequestError:
		return e.HTTPStatusCode, e.Error()
	default:
		return 0, err.Error()
	}
}
