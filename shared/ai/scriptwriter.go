package ai

import (
	"context"
	"fmt"
	"strings"

	"cue-stack/internal/models"

	"google.golang.org/genai"
)

const scriptPromptTemplate = `You are a creative director turning a meeting summary into a short
explainer video. Pick the style that fits the material best:
animated_diagram (processes and systems), whiteboard (step-by-step
explanations), presenter (announcements and updates), story (narrative arcs).

Meeting title: %s
Summary points:
%s
Key topics: %s
Decisions: %s

Return strict JSON in this exact format:
{
  "selectedStyle": "animated_diagram|whiteboard|presenter|story",
  "videoDurationSeconds": 30,
  "videoTitle": "Catchy video title",
  "scenes": [
    {
      "sceneNumber": 1,
      "duration": 6,
      "visualDescription": "What appears on screen",
      "narration": "Voice-over line",
      "keyInsight": "The one takeaway of this scene",
      "transition": "cut|fade|slide"
    }
  ],
  "veoPrompt": "A single self-contained prompt describing the whole video for a text-to-video model",
  "thumbnailDescription": "Describe a thumbnail frame",
  "backgroundMusic": "Mood of the soundtrack"
}

Keep the total scene durations close to videoDurationSeconds.`

// WriteScript turns a session summary into a scene-by-scene video script with
// a style selection. Failures here are non-fatal to the caller: a session is
// still valuable with the text summary alone.
func (c *Client) WriteScript(ctx context.Context, summary *models.SummaryRecord) (*models.VideoScriptRecord, error) {
	if summary == nil {
		return nil, fmt.Errorf("summary cannot be nil")
	}

	prompt := fmt.Sprintf(scriptPromptTemplate,
		summary.Title,
		bulletList(summary.Summary),
		strings.Join(summary.KeyTopics, ", "),
		bulletList(summary.Decisions),
	)
	parts := []*genai.Part{genai.NewPartFromText(prompt)}

	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.7),
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	text, err := c.generate(ctx, parts, gc)
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	script, err := parseScriptResponse(text)
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}
	return script, nil
}

func parseScriptResponse(text string) (*models.VideoScriptRecord, error) {
	var script models.VideoScriptRecord
	if err := decodeJSON(text, &script); err != nil {
		return nil, err
	}

	if !models.ValidStyle(script.SelectedStyle) {
		script.SelectedStyle = models.StyleAnimatedDiagram
	}
	if script.VideoDurationSeconds <= 0 {
		script.VideoDurationSeconds = 30
	}
	if len(script.Scenes) == 0 {
		return nil, fmt.Errorf("script has no scenes")
	}
	if script.VeoPrompt == "" {
		// Fall back to a prompt stitched from the scene narrations.
		var lines []string
		for _, s := range script.Scenes {
			lines = append(lines, s.VisualDescription)
		}
		script.VeoPrompt = strings.Join(lines, " Then ")
	}
	return &script, nil
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	return "- " + strings.Join(items, "\n- ")
}
