package ai

import (
	"reflect"
	"testing"
)

func TestExtractJSONEquivalentForms(t *testing.T) {
	// The same object bare, fenced, and wrapped in prose must decode to the
	// identical value.
	tests := []struct {
		name string
		text string
	}{
		{
			name: "Bare object",
			text: `{"title":"Standup","count":3}`,
		},
		{
			name: "Fenced code block",
			text: "Here is the summary:\n```json\n{\"title\":\"Standup\",\"count\":3}\n```\nLet me know if you need more.",
		},
		{
			name: "Fenced without language tag",
			text: "```\n{\"title\":\"Standup\",\"count\":3}\n```",
		},
		{
			name: "Leading and trailing prose",
			text: "Sure! The result is {\"title\":\"Standup\",\"count\":3} as requested.",
		},
	}

	want := map[string]any{"title": "Standup", "count": float64(3)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			if err := decodeJSON(tt.text, &got); err != nil {
				t.Fatalf("decodeJSON() error: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("decodeJSON() = %v, want %v", got, want)
			}
		})
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	text := `The object is {"note":"use {curly} braces","ok":true} here.`
	var got map[string]any
	if err := decodeJSON(text, &got); err != nil {
		t.Fatalf("decodeJSON() error: %v", err)
	}
	if got["note"] != "use {curly} braces" {
		t.Errorf("note = %v, want string with braces intact", got["note"])
	}
}

func TestExtractJSONNested(t *testing.T) {
	text := `prefix {"outer":{"inner":[1,2,{"deep":true}]}} suffix`
	candidate, ok := extractJSON(text)
	if !ok {
		t.Fatal("extractJSON() found nothing")
	}
	if candidate != `{"outer":{"inner":[1,2,{"deep":true}]}}` {
		t.Errorf("extractJSON() = %s", candidate)
	}
}

func TestDecodeJSONNoObject(t *testing.T) {
	tests := []string{
		"There is no JSON here at all.",
		"Broken { \"a\": ",
		"",
	}
	for _, text := range tests {
		var v map[string]any
		if err := decodeJSON(text, &v); err == nil {
			t.Errorf("decodeJSON(%q) succeeded, want error", text)
		}
	}
}
