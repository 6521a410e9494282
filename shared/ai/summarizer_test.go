package ai

import (
	"errors"
	"testing"
)

func TestParseSummaryResponse(t *testing.T) {
	text := "```json\n" + `{
  "title": "Ship Planning",
  "summary": ["Team agreed to ship by Friday"],
  "decisions": ["Ship on Friday"],
  "actionItems": [{"task": "Own the testing effort", "owner": "John", "deadline": "Friday"}],
  "keyTopics": ["release"],
  "participants": ["John"],
  "mood": "productive",
  "duration_estimate": "5 minutes"
}` + "\n```"

	summary, err := parseSummaryResponse(text)
	if err != nil {
		t.Fatalf("parseSummaryResponse() error: %v", err)
	}
	if summary.Title != "Ship Planning" {
		t.Errorf("Title = %s, want Ship Planning", summary.Title)
	}
	if len(summary.ActionItems) != 1 {
		t.Fatalf("ActionItems count = %d, want 1", len(summary.ActionItems))
	}
	item := summary.ActionItems[0]
	if item.Owner != "John" {
		t.Errorf("ActionItems[0].Owner = %s, want John", item.Owner)
	}
	if item.Deadline != "Friday" {
		t.Errorf("ActionItems[0].Deadline = %s, want Friday", item.Deadline)
	}
}

func TestParseSummaryResponseDefaults(t *testing.T) {
	summary, err := parseSummaryResponse(`{"actionItems":[{"task":"Follow up"}]}`)
	if err != nil {
		t.Fatalf("parseSummaryResponse() error: %v", err)
	}
	if summary.Title != "Untitled Session" {
		t.Errorf("Title = %s, want Untitled Session", summary.Title)
	}
	if summary.Mood != "neutral" {
		t.Errorf("Mood = %s, want neutral", summary.Mood)
	}
	if summary.ActionItems[0].Owner != "TBD" || summary.ActionItems[0].Deadline != "TBD" {
		t.Errorf("ActionItems[0] = %+v, want TBD owner and deadline", summary.ActionItems[0])
	}
	if summary.Summary == nil || summary.KeyTopics == nil {
		t.Error("nil slices not defaulted to empty")
	}
}

func TestParseSummaryResponseNoJSON(t *testing.T) {
	_, err := parseSummaryResponse("I could not summarize this meeting.")
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("error = %v, want ErrNoJSON", err)
	}
}

func TestParseScriptResponse(t *testing.T) {
	text := `{
  "selectedStyle": "whiteboard",
  "videoDurationSeconds": 24,
  "videoTitle": "Release Plan in 24 Seconds",
  "scenes": [
    {"sceneNumber": 1, "duration": 12, "visualDescription": "Hand draws a calendar", "narration": "Friday is the day", "keyInsight": "Deadline set", "transition": "cut"},
    {"sceneNumber": 2, "duration": 12, "visualDescription": "Checklist appears", "narration": "John owns testing", "keyInsight": "Ownership", "transition": "fade"}
  ],
  "veoPrompt": "Whiteboard animation of a release plan",
  "thumbnailDescription": "Calendar with Friday circled",
  "backgroundMusic": "upbeat"
}`

	script, err := parseScriptResponse(text)
	if err != nil {
		t.Fatalf("parseScriptResponse() error: %v", err)
	}
	if script.SelectedStyle != "whiteboard" {
		t.Errorf("SelectedStyle = %s, want whiteboard", script.SelectedStyle)
	}
	if len(script.Scenes) != 2 {
		t.Errorf("Scenes count = %d, want 2", len(script.Scenes))
	}
}

func TestParseScriptResponseRepairs(t *testing.T) {
	t.Run("UnknownStyleFallsBack", func(t *testing.T) {
		script, err := parseScriptResponse(`{"selectedStyle":"claymation","scenes":[{"sceneNumber":1,"duration":10,"visualDescription":"shapes","narration":"hi","keyInsight":"x","transition":"cut"}]}`)
		if err != nil {
			t.Fatalf("parseScriptResponse() error: %v", err)
		}
		if script.SelectedStyle != "animated_diagram" {
			t.Errorf("SelectedStyle = %s, want animated_diagram fallback", script.SelectedStyle)
		}
		if script.VideoDurationSeconds != 30 {
			t.Errorf("VideoDurationSeconds = %d, want 30 default", script.VideoDurationSeconds)
		}
		if script.VeoPrompt == "" {
			t.Error("VeoPrompt not synthesized from scenes")
		}
	})

	t.Run("NoScenesIsError", func(t *testing.T) {
		if _, err := parseScriptResponse(`{"selectedStyle":"story","scenes":[]}`); err == nil {
			t.Error("parseScriptResponse() succeeded with no scenes, want error")
		}
	})
}
