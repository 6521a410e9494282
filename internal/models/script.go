package models

// Video styles the script generator may select.
const (
	StyleAnimatedDiagram = "animated_diagram"
	StyleWhiteboard      = "whiteboard"
	StylePresenter       = "presenter"
	StyleStory           = "story"
)

// VideoScriptRecord is a scene-by-scene explainer-video script derived from a
// session summary.
type VideoScriptRecord struct {
	SelectedStyle        string  `json:"selectedStyle"`
	VideoDurationSeconds int     `json:"videoDurationSeconds"`
	VideoTitle           string  `json:"videoTitle"`
	Scenes               []Scene `json:"scenes"`
	VeoPrompt            string  `json:"veoPrompt"`
	ThumbnailDescription string  `json:"thumbnailDescription"`
	BackgroundMusic      string  `json:"backgroundMusic"`
}

// Scene is one segment of a video script.
type Scene struct {
	SceneNumber       int    `json:"sceneNumber"`
	Duration          int    `json:"duration"`
	VisualDescription string `json:"visualDescription"`
	Narration         string `json:"narration"`
	KeyInsight        string `json:"keyInsight"`
	Transition        string `json:"transition"`
}

// ValidStyle reports whether s is one of the known video styles.
func ValidStyle(s string) bool {
	switch s {
	case StyleAnimatedDiagram, StyleWhiteboard, StylePresenter, StyleStory:
		return true
	}
	return false
}
