package video

import (
	"fmt"
	"strings"

	"cue-stack/internal/models"
)

// BuildPrompt derives a text-to-video prompt from a session summary. Used
// when no generated script is available (video backfill of older sessions).
func BuildPrompt(summary *models.SummaryRecord) string {
	var points string
	if len(summary.Summary) > 0 {
		limit := len(summary.Summary)
		if limit > 3 {
			limit = 3
		}
		points = "Key highlights: " + strings.Join(summary.Summary[:limit], "; ")
	}

	prompt := fmt.Sprintf(`Create a 30-second animated explainer video summary.

Topic: %s
%s
Tone: %s

Visual style: Modern minimalist motion graphics with smooth transitions.
Use abstract shapes, icons, and flowing animations to represent concepts.
Include subtle text overlays for key points.
Color palette: Professional blues, purples, and white accents.
No human faces or characters.`, summary.Title, points, summary.Mood)

	return strings.TrimSpace(prompt)
}
