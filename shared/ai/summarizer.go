package ai

import (
	"context"
	"fmt"
	"strings"

	"cue-stack/internal/models"

	"google.golang.org/genai"
)

const summaryPromptTemplate = `You are an executive assistant analyzing a recorded meeting.

%s

Transcript:
%s

Analyze the transcript and return strict JSON in this exact format:
{
  "title": "Short descriptive meeting title",
  "summary": ["First key point discussed", "Second key point", "Third key point"],
  "decisions": ["Decision that was made"],
  "actionItems": [
    {"task": "Action to take", "owner": "Person responsible or TBD", "deadline": "Deadline mentioned or TBD"}
  ],
  "keyTopics": ["topic1", "topic2"],
  "participants": ["Names of speakers if identifiable"],
  "mood": "productive|tense|casual|neutral",
  "duration_estimate": "Approximate meeting length, e.g. '25 minutes'"
}

Use empty arrays for sections with nothing to report. Use "TBD" for unknown
owners and deadlines. Do not invent content that is not in the transcript.`

// Summarize produces the structured summary record for a transcript.
func (c *Client) Summarize(ctx context.Context, transcript string, meta models.TabMetadata) (*models.SummaryRecord, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	var header strings.Builder
	if meta.Domain != "" {
		fmt.Fprintf(&header, "Recorded on: %s\n", meta.Domain)
	}
	if meta.URL != "" {
		fmt.Fprintf(&header, "Source: %s\n", meta.URL)
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, header.String(), transcript)
	parts := []*genai.Part{genai.NewPartFromText(prompt)}

	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.7),
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	text, err := c.generate(ctx, parts, gc)
	if err != nil {
		return nil, fmt.Errorf("summarization failed: %w", err)
	}

	summary, err := parseSummaryResponse(text)
	if err != nil {
		return nil, fmt.Errorf("summarization failed: %w", err)
	}
	return summary, nil
}

func parseSummaryResponse(text string) (*models.SummaryRecord, error) {
	var summary models.SummaryRecord
	if err := decodeJSON(text, &summary); err != nil {
		return nil, err
	}

	if summary.Title == "" {
		summary.Title = "Untitled Session"
	}
	if summary.Mood == "" {
		summary.Mood = "neutral"
	}
	if summary.Summary == nil {
		summary.Summary = []string{}
	}
	if summary.Decisions == nil {
		summary.Decisions = []string{}
	}
	if summary.ActionItems == nil {
		summary.ActionItems = []models.ActionItem{}
	}
	if summary.KeyTopics == nil {
		summary.KeyTopics = []string{}
	}
	if summary.Participants == nil {
		summary.Participants = []string{}
	}
	for i := range summary.ActionItems {
		if summary.ActionItems[i].Owner == "" {
			summary.ActionItems[i].Owner = "TBD"
		}
		if summary.ActionItems[i].Deadline == "" {
			summary.ActionItems[i].Deadline = "TBD"
		}
	}
	return &summary, nil
}
