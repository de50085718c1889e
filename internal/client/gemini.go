package client

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/genai"

	"github.com/podiumlabs/orator_service/internal/errors"
)

// GeminiClient wraps the Vertex AI Gemini client as an alternative feedback
// model provider.
type GeminiClient struct {
	client    *genai.Client
	model     string
	projectID string
	location  string
}

// NewGeminiClient creates a new Gemini client using Vertex AI with application
// default credentials.
func NewGeminiClient(ctx context.Context, projectID, location string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client:    client,
		model:     "gemini-2.5-flash",
		projectID: projectID,
		location:  location,
	}, nil
}

// NewGeminiClientWithServiceAccount creates a new Gemini client from a service
// account file. The project id is read from the credentials when not given.
func NewGeminiClientWithServiceAccount(ctx context.Context, projectID, location, serviceAccountPath string) (*GeminiClient, error) {
	saJSON, err := os.ReadFile(serviceAccountPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, saJSON, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("no project id in flags or service account")
	}

	// The genai SDK picks credentials up from the environment.
	if err := os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", serviceAccountPath); err != nil {
		return nil, fmt.Errorf("failed to set GOOGLE_APPLICATION_CREDENTIALS: %w", err)
	}

	cfg := &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client:    client,
		model:     "gemini-2.5-flash",
		projectID: projectID,
		location:  location,
	}, nil
}

// WithModel sets the model to use.
func (c *GeminiClient) WithModel(model string) *GeminiClient {
	c.model = model
	return c
}

// Close closes the client.
func (c *GeminiClient) Close() {
	// No explicit close needed for the genai SDK
}

// ChatWithSystem sends a system+user message pair and returns the raw model
// reply. Gemini transport errors carry no usable HTTP status, so they map to
// the generic provider error kind.
func (c *GeminiClient) ChatWithSystem(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", errors.ProviderError(0, err.Error())
	}
	return resp.Text(), nil
}
