package models

import "time"

// Session is one completed (or partially completed) recording. It is
// immutable after creation except for a later video-URL backfill, and is
// removed only by explicit user deletion.
type Session struct {
	SessionID       string             `json:"sessionId"`
	Title           string             `json:"title"`
	CreatedAt       time.Time          `json:"createdAt"`
	DurationSeconds int                `json:"durationSeconds"`
	Transcript      string             `json:"transcript"`
	Summary         *SummaryRecord     `json:"summary"`
	VideoScript     *VideoScriptRecord `json:"videoScript,omitempty"`
	HasVideo        bool               `json:"hasVideo"`
	VideoURL        string             `json:"videoUrl,omitempty"`
	VideoError      string             `json:"videoError,omitempty"`
	Metadata        TabMetadata        `json:"metadata"`
}

// TabMetadata records where the recording came from.
type TabMetadata struct {
	Domain string `json:"domain"`
	URL    string `json:"url"`
}

// SummaryRecord is the structured summary produced from a transcript.
type SummaryRecord struct {
	Title            string       `json:"title"`
	Summary          []string     `json:"summary"`
	Decisions        []string     `json:"decisions"`
	ActionItems      []ActionItem `json:"actionItems"`
	KeyTopics        []string     `json:"keyTopics"`
	Participants     []string     `json:"participants"`
	Mood             string       `json:"mood"`
	DurationEstimate string       `json:"duration_estimate"`
}

// ActionItem is a single follow-up extracted from the meeting.
type ActionItem struct {
	Task     string `json:"task"`
	Owner    string `json:"owner"`
	Deadline string `json:"deadline"`
}
