package models

// Stage names for the recording pipeline. Transitions run strictly forward
// through this sequence; StageError is reachable from any non-terminal stage
// and StageIdle only via an explicit reset from StageError or StageComplete.
const (
	StageIdle            = "idle"
	StageRecording       = "recording"
	StageTranscribing    = "transcribing"
	StageSummarizing     = "summarizing"
	StageGeneratingVideo = "generating_video"
	StageComplete        = "complete"
	StageError           = "error"
)

// PipelineState is the orchestrator-owned snapshot mirrored by UI surfaces.
type PipelineState struct {
	Stage           string `json:"stage"`
	DurationSeconds int    `json:"durationSeconds"`
	SessionID       string `json:"sessionId,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Terminal reports whether the stage accepts no further forward transition.
func (s PipelineState) Terminal() bool {
	return s.Stage == StageComplete || s.Stage == StageError
}
