// Package backfill generates explainer videos for stored sessions that have
// a summary but no video, on a schedule. Attaching the video URL is the sole
// mutation a stored session ever receives.
package backfill

import (
	"context"
	"fmt"
	"log"
	"time"

	"cue-stack/internal/models"
	"cue-stack/shared/config"
	"cue-stack/shared/scheduler"
	"cue-stack/shared/storage"
	"cue-stack/shared/video"
)

// Metrics represents the outcome of one backfill run.
type Metrics struct {
	Scanned   int  `json:"scanned"`
	Generated int  `json:"generated"`
	Failed    int  `json:"failed"`
	EmailSent bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m Metrics) GetSummary() string {
	if m.Scanned == 0 {
		return "no sessions awaiting video"
	}
	return fmt.Sprintf("%d/%d sessions backfilled (%d failed)", m.Generated, m.Scanned, m.Failed)
}

type videoGenerator interface {
	Generate(ctx context.Context, prompt, visualStyle string) (string, error)
}

type sessionStore interface {
	List(ctx context.Context, opts storage.ListOptions) ([]*models.Session, error)
	AttachVideo(ctx context.Context, id, videoURL string) error
}

// DigestSender emails a summary of a completed backfill run.
type DigestSender interface {
	SendBackfillDigest(report *models.BackfillReport) error
}

// Agent implements the scheduler.Agent interface.
type Agent struct {
	config   *config.Config
	store    sessionStore
	videoGen videoGenerator
	sender   DigestSender // nil when email is disabled
}

func NewAgent(cfg *config.Config, store sessionStore, videoGen videoGenerator, sender DigestSender) *Agent {
	return &Agent{
		config:   cfg,
		store:    store,
		videoGen: videoGen,
		sender:   sender,
	}
}

func (a *Agent) Name() string {
	return "Video Backfill Agent"
}

func (a *Agent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())

	if a.config.Backfill.Limit <= 0 {
		return fmt.Errorf("backfill limit must be positive")
	}

	log.Printf("Configured for up to %d sessions per run", a.config.Backfill.Limit)
	return nil
}

func (a *Agent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := Metrics{}

	log.Println("Listing sessions without video...")
	sessions, err := a.store.List(ctx, storage.ListOptions{
		Filter: storage.FilterWithoutVideo,
		Limit:  a.config.Backfill.Limit,
	})
	if err != nil {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("failed to list sessions: %w", err), time.Since(startTime))
		}
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	report := &models.BackfillReport{Date: time.Now()}

	for _, session := range sessions {
		if session.Summary == nil {
			continue
		}
		metrics.Scanned++

		item := models.BackfillItem{SessionID: session.SessionID, Title: session.Title}
		prompt, style := promptFor(session)

		log.Printf("Generating video for session %s (%s)...", session.SessionID, session.Title)
		url, err := a.videoGen.Generate(ctx, prompt, style)
		if err != nil {
			// One failed generation doesn't stop the run
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("session %s: %w", session.SessionID, err), time.Since(startTime))
			}
			log.Printf("Video generation failed for session %s: %v", session.SessionID, err)
			metrics.Failed++
			item.Error = err.Error()
			report.Sessions = append(report.Sessions, item)
			continue
		}

		if err := a.store.AttachVideo(ctx, session.SessionID, url); err != nil {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("session %s: %w", session.SessionID, err), time.Since(startTime))
			}
			log.Printf("Failed to attach video to session %s: %v", session.SessionID, err)
			metrics.Failed++
			item.Error = err.Error()
			report.Sessions = append(report.Sessions, item)
			continue
		}

		metrics.Generated++
		item.VideoURL = url
		report.Sessions = append(report.Sessions, item)
	}

	report.Scanned = metrics.Scanned
	report.Succeeded = metrics.Generated
	report.Failed = metrics.Failed

	if a.sender != nil && len(report.Sessions) > 0 {
		if err := a.sender.SendBackfillDigest(report); err != nil {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to send digest: %w", err), time.Since(startTime))
			}
			log.Printf("Failed to send backfill digest: %v", err)
		} else {
			metrics.EmailSent = true
		}
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}

	log.Printf("Backfill complete: %s", metrics.GetSummary())
	return nil
}

// promptFor prefers the script's dedicated video prompt; sessions that never
// got a script fall back to a prompt derived from the summary.
func promptFor(session *models.Session) (prompt, style string) {
	if session.VideoScript != nil && session.VideoScript.VeoPrompt != "" {
		return session.VideoScript.VeoPrompt, session.VideoScript.SelectedStyle
	}
	return video.BuildPrompt(session.Summary), ""
}
