package recorder

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cue-stack/internal/models"
	"cue-stack/shared/ai"
	"cue-stack/shared/bus"
	"cue-stack/shared/capture"
	"cue-stack/shared/config"
	"cue-stack/shared/storage"
)

// audioSource is the capture adapter the agent records through.
type audioSource interface {
	Start(ctx context.Context) error
	Stop() ([]byte, time.Duration, error)
	Recording() bool
}

// answerer answers ad-hoc user questions with page context.
type answerer interface {
	Answer(ctx context.Context, query string, page ai.PageContext, history []ai.ChatTurn) (string, error)
}

// sessionLister serves FETCH_SESSIONS requests.
type sessionLister interface {
	List(ctx context.Context, opts storage.ListOptions) ([]*models.Session, error)
}

// TaskExporter pushes action items to an external task service.
type TaskExporter interface {
	ExportActionItems(ctx context.Context, session *models.Session) (int, error)
}

// AskAIRequest is the ASK_AI payload.
type AskAIRequest struct {
	Query   string
	Page    ai.PageContext
	History []ai.ChatTurn
}

// Agent connects the bus topics to the pipeline, the capture adapter, and
// the session store. It is the background process the recording surfaces
// talk to.
type Agent struct {
	config   *config.Config
	bus      *bus.Bus
	pipeline *Pipeline
	source   audioSource
	answerer answerer
	sessions sessionLister
	tasks    TaskExporter // nil when task export is disabled

	ctx  context.Context
	runs sync.WaitGroup

	mu   sync.Mutex
	meta models.TabMetadata
}

func NewAgent(cfg *config.Config, b *bus.Bus, pipeline *Pipeline, source audioSource, answerer answerer, sessions sessionLister, tasks TaskExporter) *Agent {
	return &Agent{
		config:   cfg,
		bus:      b,
		pipeline: pipeline,
		source:   source,
		answerer: answerer,
		sessions: sessions,
		tasks:    tasks,
	}
}

// Start registers the agent on the bus. ctx bounds every background run the
// agent spawns.
func (a *Agent) Start(ctx context.Context) error {
	a.ctx = ctx

	handlers := map[bus.Type]bus.Handler{
		bus.StartRecording: a.handleStart,
		bus.StopRecording:  a.handleStop,
		bus.Reset:          a.handleReset,
		bus.GetState:       a.handleGetState,
		bus.AskAI:          a.handleAskAI,
		bus.FetchSessions:  a.handleFetchSessions,
		bus.OpenLibrary:    a.handleOpenLibrary,
	}
	for t, h := range handlers {
		if err := a.bus.Handle(t, h); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", t, err)
		}
	}

	// Meeting auto start/stop mirrors the manual controls.
	a.bus.Subscribe(bus.SessionStart, func(msg bus.Message) {
		if _, err := a.handleStart(a.ctx, msg); err != nil {
			log.Printf("Auto-start skipped: %v", err)
		}
	})
	a.bus.Subscribe(bus.SessionEnd, func(msg bus.Message) {
		if !a.source.Recording() {
			return
		}
		if _, err := a.handleStop(a.ctx, msg); err != nil {
			log.Printf("Auto-stop failed: %v", err)
		}
	})

	log.Println("Recorder agent started")
	return nil
}

// Wait blocks until every in-flight pipeline run has finished.
func (a *Agent) Wait() {
	a.runs.Wait()
}

func (a *Agent) handleStart(ctx context.Context, msg bus.Message) (any, error) {
	meta, _ := msg.Payload.(models.TabMetadata)

	if err := a.pipeline.BeginRecording(); err != nil {
		return nil, err
	}
	if err := a.source.Start(a.ctx); err != nil {
		_ = a.pipeline.AbortCapture(err)
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}

	a.mu.Lock()
	a.meta = meta
	a.mu.Unlock()

	log.Printf("Recording started (domain=%s)", meta.Domain)
	return a.pipeline.State(), nil
}

func (a *Agent) handleStop(ctx context.Context, msg bus.Message) (any, error) {
	if !a.source.Recording() {
		return nil, capture.ErrNotRecording
	}

	audio, duration, err := a.source.Stop()
	if err != nil {
		_ = a.pipeline.AbortCapture(err)
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}

	a.mu.Lock()
	meta := a.meta
	a.mu.Unlock()

	// The surfaces get the intermediate state back immediately; the run
	// continues in the background and announces progress on the bus.
	a.runs.Add(1)
	go func() {
		defer a.runs.Done()
		session, err := a.pipeline.Run(a.ctx, audio, capture.MimeType, duration, meta)
		if err != nil {
			log.Printf("Pipeline run failed: %v", err)
			return
		}
		a.exportTasks(session)
	}()

	return a.pipeline.State(), nil
}

func (a *Agent) handleReset(ctx context.Context, msg bus.Message) (any, error) {
	if err := a.pipeline.Reset(); err != nil {
		return nil, err
	}
	return a.pipeline.State(), nil
}

func (a *Agent) handleGetState(ctx context.Context, msg bus.Message) (any, error) {
	return a.pipeline.State(), nil
}

func (a *Agent) handleAskAI(ctx context.Context, msg bus.Message) (any, error) {
	req, ok := msg.Payload.(AskAIRequest)
	if !ok {
		return nil, fmt.Errorf("ASK_AI expects an AskAIRequest payload")
	}
	return a.answerer.Answer(ctx, req.Query, req.Page, req.History)
}

func (a *Agent) handleFetchSessions(ctx context.Context, msg bus.Message) (any, error) {
	opts, _ := msg.Payload.(storage.ListOptions)
	return a.sessions.List(ctx, opts)
}

func (a *Agent) handleOpenLibrary(ctx context.Context, msg bus.Message) (any, error) {
	return a.config.Library.URL, nil
}

// IngestFile runs a dropped recording file through the pipeline. It is the
// second entry point besides live capture; the run is synchronous so the
// watcher processes one file at a time.
func (a *Agent) IngestFile(ctx context.Context, path string) error {
	mimeType, ok := mimeForFile(path)
	if !ok {
		return fmt.Errorf("unsupported recording format: %s", filepath.Ext(path))
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read recording file: %w", err)
	}

	if err := a.pipeline.BeginRecording(); err != nil {
		return fmt.Errorf("ingest skipped for %s: %w", filepath.Base(path), err)
	}

	meta := models.TabMetadata{
		Domain: "file",
		URL:    "file://" + path,
	}

	session, err := a.pipeline.Run(ctx, audio, mimeType, 0, meta)
	if err != nil {
		return err
	}
	a.exportTasks(session)

	log.Printf("Ingested %s as session %s", filepath.Base(path), session.SessionID)
	return nil
}

func (a *Agent) exportTasks(session *models.Session) {
	if a.tasks == nil || session == nil {
		return
	}
	if _, err := a.tasks.ExportActionItems(a.ctx, session); err != nil {
		log.Printf("Task export failed for session %s: %v", session.SessionID, err)
	}
}

func mimeForFile(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav", true
	case ".webm":
		return "audio/webm", true
	case ".mp3":
		return "audio/mpeg", true
	case ".m4a":
		return "audio/mp4", true
	case ".ogg":
		return "audio/ogg", true
	}
	return "", false
}
