package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const transcribePrompt = `Transcribe the audio content accurately. Include all spoken words.
If there is music or non-speech audio, note it briefly in brackets.

Output the transcription as plain text only, no JSON formatting.`

// Transcribe converts a recorded audio buffer into plain text. The audio is
// passed inline next to the instruction, the way the extension ships it.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio buffer is empty")
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(transcribePrompt),
		genai.NewPartFromBytes(audio, mimeType),
	}

	// Low temperature: transcription rewards accuracy, not creativity.
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 8192,
	}

	text, err := c.generate(ctx, parts, gc)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return text, nil
}
