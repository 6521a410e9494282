// Package video submits explainer-video prompts to a Veo-style generation
// endpoint and drives its long-running operations to completion.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cue-stack/shared/config"
)

type Client struct {
	httpClient      *http.Client
	baseURL         string
	apiKey          string
	model           string
	pollInterval    time.Duration
	maxPollAttempts int

	aspectRatio     string
	durationSeconds int
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 90 * time.Second},
		baseURL:         strings.TrimRight(cfg.Video.BaseURL, "/"),
		apiKey:          cfg.AI.GeminiAPIKey,
		model:           cfg.Video.Model,
		pollInterval:    time.Duration(cfg.Video.PollIntervalSeconds) * time.Second,
		maxPollAttempts: cfg.Video.MaxPollAttempts,
		aspectRatio:     cfg.Video.AspectRatio,
		durationSeconds: cfg.Video.DurationSeconds,
	}
}

type generateRequest struct {
	Prompt string         `json:"prompt"`
	Config generateConfig `json:"config"`
}

type generateConfig struct {
	AspectRatio      string `json:"aspectRatio"`
	DurationSeconds  int    `json:"durationSeconds"`
	NumberOfVideos   int    `json:"numberOfVideos"`
	PersonGeneration string `json:"personGeneration"`
	StylePreset      string `json:"stylePreset,omitempty"`
	VisualStyle      string `json:"visualStyle,omitempty"`
}

// Generate submits prompt and returns the URL of the finished video. The
// endpoint may answer synchronously with the video, or with an operation
// handle that is then polled at a fixed interval until completion, failure,
// or exhaustion of the attempt budget. Transient polling errors count as
// "not done yet".
func (c *Client) Generate(ctx context.Context, prompt, visualStyle string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("video prompt is empty")
	}

	req := generateRequest{
		Prompt: prompt,
		Config: generateConfig{
			AspectRatio:      c.aspectRatio,
			DurationSeconds:  c.durationSeconds,
			NumberOfVideos:   1,
			PersonGeneration: "dont_allow",
			VisualStyle:      visualStyle,
		},
	}

	submitURL := fmt.Sprintf("%s/models/%s:generateVideos", c.baseURL, c.model)
	resp, err := c.post(ctx, submitURL, req)
	if err != nil {
		return "", fmt.Errorf("video generation request failed: %w", err)
	}

	// Synchronous answer: the video is already there, zero polls.
	if url, ok := extractVideoURL(resp); ok {
		return url, nil
	}

	operation := operationName(resp)
	if operation == "" {
		return "", fmt.Errorf("video endpoint returned neither a video nor an operation handle")
	}

	return c.poll(ctx, operation)
}

// poll drives one long-running operation: submitted → polling → done, failed,
// or timed out.
func (c *Client) poll(ctx context.Context, operation string) (string, error) {
	pollURL := c.baseURL + "/" + strings.TrimLeft(operation, "/")

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("video generation cancelled: %w", ctx.Err())
			case <-time.After(c.pollInterval):
			}
		}

		status, err := c.get(ctx, pollURL)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("video generation cancelled: %w", ctx.Err())
			}
			// Transient polling error, treat as not done yet.
			continue
		}

		done, _ := status["done"].(bool)
		if !done {
			continue
		}

		if msg := operationError(status); msg != "" {
			return "", fmt.Errorf("video generation failed: %s", msg)
		}
		if url, ok := extractVideoURL(status); ok {
			return url, nil
		}
		return "", fmt.Errorf("video operation finished without a video URL")
	}

	return "", fmt.Errorf("video generation timed out after %d polls", c.maxPollAttempts)
}

func (c *Client) post(ctx context.Context, url string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (map[string]any, error) {
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func operationName(resp map[string]any) string {
	if name, ok := resp["name"].(string); ok && name != "" {
		return name
	}
	if id, ok := resp["operationId"].(string); ok && id != "" {
		return id
	}
	return ""
}

func operationError(status map[string]any) string {
	switch e := status["error"].(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
		return fmt.Sprintf("%v", e)
	}
	return ""
}

// extractVideoURL probes the fixed set of known response shapes, first match
// wins.
func extractVideoURL(resp map[string]any) (string, bool) {
	probes := [][]string{
		{"video", "uri"},
		{"videoUrl"},
		{"uri"},
		{"response", "video", "uri"},
		{"response", "videoUrl"},
		{"result", "video", "uri"},
		{"result", "videoUrl"},
		{"result", "uri"},
	}
	for _, path := range probes {
		if url, ok := dig(resp, path...); ok {
			return url, true
		}
	}
	// Operation responses from the GenAI API nest the video in a list.
	for _, key := range []string{"response", "result"} {
		if nested, ok := resp[key].(map[string]any); ok {
			if videos, ok := nested["generatedVideos"].([]any); ok && len(videos) > 0 {
				if first, ok := videos[0].(map[string]any); ok {
					if url, ok := dig(first, "video", "uri"); ok {
						return url, true
					}
				}
			}
		}
	}
	return "", false
}

func dig(m map[string]any, path ...string) (string, bool) {
	current := m
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return "", false
		}
		if i == len(path)-1 {
			s, ok := value.(string)
			return s, ok && s != ""
		}
		current, ok = value.(map[string]any)
		if !ok {
			return "", false
		}
	}
	return "", false
}
