package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const askAIPreamble = `You are a helpful AI assistant integrated into a browser extension.
Answer the user's question concisely and helpfully based on the context provided.
Be friendly, clear, and to the point (2-4 sentences unless more detail is needed).`

// askAIMaxHistoryTurns caps how many prior turns reach the prompt; older
// turns are dropped first.
const askAIMaxHistoryTurns = 10

// PageContext carries what the asking surface knows about the current page.
type PageContext struct {
	PageTitle    string `json:"pageTitle"`
	CurrentURL   string `json:"currentUrl"`
	SelectedText string `json:"selectedText"`
}

// ChatTurn is one prior exchange in an ask-AI conversation.
type ChatTurn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Answer responds to a user question with page context and bounded
// conversation history.
func (c *Client) Answer(ctx context.Context, query string, page PageContext, history []ChatTurn) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query is empty")
	}

	parts := []*genai.Part{genai.NewPartFromText(buildAskPrompt(query, page, history))}
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.5),
		MaxOutputTokens: 1024,
	}

	answer, err := c.generate(ctx, parts, gc)
	if err != nil {
		return "", fmt.Errorf("ask AI failed: %w", err)
	}
	return answer, nil
}

func buildAskPrompt(query string, page PageContext, history []ChatTurn) string {
	if len(history) > askAIMaxHistoryTurns {
		history = history[len(history)-askAIMaxHistoryTurns:]
	}

	var prompt strings.Builder
	prompt.WriteString(askAIPreamble)
	prompt.WriteString("\n\n")
	if page.PageTitle != "" {
		fmt.Fprintf(&prompt, "You are on: %s\n", page.PageTitle)
	}
	if page.CurrentURL != "" {
		fmt.Fprintf(&prompt, "URL: %s\n", page.CurrentURL)
	}
	if page.SelectedText != "" {
		fmt.Fprintf(&prompt, "Selected text: %s\n", truncate(page.SelectedText, 500))
	}
	for _, turn := range history {
		role := "User"
		if turn.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&prompt, "%s: %s\n", role, truncate(turn.Text, 2000))
	}
	fmt.Fprintf(&prompt, "\nUser's question: %s\n\nProvide a helpful answer.", query)
	return prompt.String()
}
