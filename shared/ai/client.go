// Package ai wraps the Gemini API for the text and audio tasks of the
// recording pipeline: transcription, summarization, video-script generation,
// and ad-hoc question answering.
package ai

import (
	"context"
	"fmt"

	"cue-stack/shared/config"

	"google.golang.org/genai"
)

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.AI.Model,
	}, nil
}

// generate issues a single GenerateContent call and returns the raw text of
// the first candidate. Transport and API errors come back wrapped so callers
// can tell them apart from parse failures on the response body.
func (c *Client) generate(ctx context.Context, parts []*genai.Part, gc *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}
