// Package recorder hosts the recording pipeline: capture a meeting, turn it
// into a transcript, a structured summary, a video script, and finally a
// generated explainer video, then persist the session.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cue-stack/internal/models"
	"cue-stack/shared/bus"
	"cue-stack/shared/storage"
)

// Stage failure sentinels. Transcription and summarization failures abort the
// run; script and video failures only degrade the saved session.
var (
	ErrCapture          = errors.New("audio capture failed")
	ErrTranscription    = errors.New("transcription failed")
	ErrSummarization    = errors.New("summarization failed")
	ErrScriptGeneration = errors.New("script generation failed")
	ErrVideoGeneration  = errors.New("video generation failed")

	// ErrBusy is returned when a start is attempted while a run is active.
	ErrBusy = errors.New("a pipeline run is already in progress")
	// ErrNotTerminal is returned when reset is attempted mid-run.
	ErrNotTerminal = errors.New("pipeline can only be reset from complete or error")
)

// Transcriber converts an audio buffer into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Summarizer produces a structured summary from a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, meta models.TabMetadata) (*models.SummaryRecord, error)
}

// ScriptWriter turns a summary into a scene-by-scene video script.
type ScriptWriter interface {
	WriteScript(ctx context.Context, summary *models.SummaryRecord) (*models.VideoScriptRecord, error)
}

// VideoGenerator renders a video from a prompt and returns its URL.
type VideoGenerator interface {
	Generate(ctx context.Context, prompt, visualStyle string) (string, error)
}

// SessionSaver persists completed sessions and pipeline-state snapshots.
type SessionSaver interface {
	Save(ctx context.Context, session *models.Session) (string, error)
	SaveState(state models.PipelineState) error
}

// RunMonitor receives run outcomes for health reporting.
type RunMonitor interface {
	RecordSuccess(summary string, duration time.Duration)
	RecordPartialFailure(err error, duration time.Duration)
	RecordCriticalFailure(err error, duration time.Duration)
}

// Pipeline owns the recording state machine. All state lives here; callers
// observe it through State, the bus, or the durable snapshot.
type Pipeline struct {
	transcriber  Transcriber
	summarizer   Summarizer
	scriptWriter ScriptWriter
	videoGen     VideoGenerator
	store        SessionSaver
	bus          *bus.Bus
	monitor      RunMonitor // nil disables health reporting

	state stateHolder
}

func NewPipeline(t Transcriber, s Summarizer, w ScriptWriter, v VideoGenerator, store SessionSaver, b *bus.Bus) *Pipeline {
	p := &Pipeline{
		transcriber:  t,
		summarizer:   s,
		scriptWriter: w,
		videoGen:     v,
		store:        store,
		bus:          b,
	}
	p.state.current = models.PipelineState{Stage: models.StageIdle}
	return p
}

// SetMonitor attaches a health monitor that receives run outcomes.
func (p *Pipeline) SetMonitor(m RunMonitor) {
	p.monitor = m
}

// State returns a snapshot of the current pipeline state.
func (p *Pipeline) State() models.PipelineState {
	return p.state.get()
}

// BeginRecording transitions the pipeline into the recording stage. It is
// rejected while a run is active: one recording at a time.
func (p *Pipeline) BeginRecording() error {
	ok := p.state.transition(func(s models.PipelineState) (models.PipelineState, bool) {
		if s.Stage != models.StageIdle && !s.Terminal() {
			return s, false
		}
		return models.PipelineState{Stage: models.StageRecording}, true
	})
	if !ok {
		return ErrBusy
	}
	p.announce()
	return nil
}

// Reset returns the pipeline to idle. Only terminal states can be reset; a
// run in flight keeps its state until it finishes.
func (p *Pipeline) Reset() error {
	ok := p.state.transition(func(s models.PipelineState) (models.PipelineState, bool) {
		if !s.Terminal() {
			return s, false
		}
		return models.PipelineState{Stage: models.StageIdle}, true
	})
	if !ok {
		return ErrNotTerminal
	}
	p.announce()
	return nil
}

// AbortCapture records a capture-layer failure: the run ends in the error
// state before any audio reaches the pipeline.
func (p *Pipeline) AbortCapture(err error) error {
	return p.fail(fmt.Errorf("%w: %v", ErrCapture, err), 0, 0)
}

// Run processes one recorded buffer end to end. The pipeline must be in the
// recording stage (see BeginRecording). On success the saved session is
// returned; transcription and summarization failures leave the pipeline in
// the error state with no session saved.
func (p *Pipeline) Run(ctx context.Context, audio []byte, mimeType string, duration time.Duration, meta models.TabMetadata) (*models.Session, error) {
	started := time.Now()
	durationSeconds := int(duration / time.Second)

	if !p.advance(models.StageRecording, models.StageTranscribing, durationSeconds) {
		return nil, ErrBusy
	}

	transcript, err := p.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, p.fail(fmt.Errorf("%w: %v", ErrTranscription, err), durationSeconds, time.Since(started))
	}

	p.advance(models.StageTranscribing, models.StageSummarizing, durationSeconds)

	summary, err := p.summarizer.Summarize(ctx, transcript, meta)
	if err != nil {
		return nil, p.fail(fmt.Errorf("%w: %v", ErrSummarization, err), durationSeconds, time.Since(started))
	}

	session := &models.Session{
		SessionID:       storage.NewSessionID(),
		Title:           summary.Title,
		CreatedAt:       time.Now().UTC(),
		DurationSeconds: durationSeconds,
		Transcript:      transcript,
		Summary:         summary,
		Metadata:        meta,
	}

	// Script and video failures degrade the session instead of aborting it.
	// The generating_video stage is entered only once a script exists; a run
	// whose script fails goes straight from summarizing to complete.
	script, err := p.scriptWriter.WriteScript(ctx, summary)
	if err != nil {
		log.Printf("Script generation failed, saving session without video: %v", err)
		p.degrade(fmt.Errorf("%w: %v", ErrScriptGeneration, err), time.Since(started))
	} else {
		session.VideoScript = script
		p.advance(models.StageSummarizing, models.StageGeneratingVideo, durationSeconds)
		url, err := p.videoGen.Generate(ctx, script.VeoPrompt, script.SelectedStyle)
		if err != nil {
			log.Printf("Video generation failed, saving session without video: %v", err)
			session.VideoError = err.Error()
			p.degrade(fmt.Errorf("%w: %v", ErrVideoGeneration, err), time.Since(started))
		} else {
			session.HasVideo = true
			session.VideoURL = url
		}
	}

	id, err := p.store.Save(ctx, session)
	if err != nil {
		// Even the local fallback failed; nothing to hand back.
		return nil, p.fail(fmt.Errorf("failed to save session: %w", err), durationSeconds, time.Since(started))
	}
	session.SessionID = id

	p.state.set(models.PipelineState{
		Stage:           models.StageComplete,
		DurationSeconds: durationSeconds,
		SessionID:       id,
	})
	p.announce()
	p.bus.Publish(bus.ShowSummary, session)

	if p.monitor != nil {
		p.monitor.RecordSuccess(fmt.Sprintf("session %s saved (video=%t)", id, session.HasVideo), time.Since(started))
	}
	log.Printf("Pipeline run complete for session %s (video=%t)", id, session.HasVideo)
	return session, nil
}

// advance moves from one stage to the next and broadcasts the transition.
func (p *Pipeline) advance(from, to string, durationSeconds int) bool {
	ok := p.state.transition(func(s models.PipelineState) (models.PipelineState, bool) {
		if s.Stage != from {
			return s, false
		}
		return models.PipelineState{Stage: to, DurationSeconds: durationSeconds}, true
	})
	if ok {
		p.announce()
	}
	return ok
}

func (p *Pipeline) fail(err error, durationSeconds int, elapsed time.Duration) error {
	p.state.set(models.PipelineState{
		Stage:           models.StageError,
		DurationSeconds: durationSeconds,
		Error:           err.Error(),
	})
	p.announce()
	if p.monitor != nil {
		p.monitor.RecordCriticalFailure(err, elapsed)
	}
	return err
}

// degrade reports a non-fatal stage failure; the run carries on.
func (p *Pipeline) degrade(err error, elapsed time.Duration) {
	if p.monitor != nil {
		p.monitor.RecordPartialFailure(err, elapsed)
	}
}

// announce broadcasts the current state and snapshots it durably so a
// reopened surface can pick it up.
func (p *Pipeline) announce() {
	state := p.state.get()
	p.bus.Publish(bus.StateUpdate, state)
	if err := p.store.SaveState(state); err != nil {
		log.Printf("Failed to snapshot pipeline state: %v", err)
	}
}
