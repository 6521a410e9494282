package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cue-stack/agents/recorder"
	"cue-stack/internal/models"
	"cue-stack/shared/ai"
	"cue-stack/shared/bus"
	"cue-stack/shared/capture"
	"cue-stack/shared/config"
	"cue-stack/shared/gtasks"
	"cue-stack/shared/monitoring"
	"cue-stack/shared/storage"
	"cue-stack/shared/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	aiClient, err := ai.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	local, err := storage.NewLocalStore(cfg.Persistence.LocalStoreFile)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	store := storage.NewSessionStore(storage.NewRemoteClient(&cfg.Persistence), local)

	// A previous process may have died mid-run; surfaces reading the snapshot
	// would otherwise wait on a stage that no longer exists.
	if state, found, err := store.LoadState(); err == nil && found && !state.Terminal() {
		log.Printf("Found stale pipeline state %q from a previous run, resetting to idle", state.Stage)
		if err := store.SaveState(models.PipelineState{Stage: models.StageIdle}); err != nil {
			log.Printf("Failed to reset pipeline state: %v", err)
		}
	}

	b := bus.New()
	pipeline := recorder.NewPipeline(
		aiClient, aiClient, aiClient,
		video.NewClient(cfg),
		store, b,
	)

	monitor := monitoring.NewMonitor()
	pipeline.SetMonitor(monitor)

	var tasks *gtasks.Client
	if cfg.Tasks.Enabled {
		tasks, err = gtasks.NewClient(&cfg.Tasks)
		if err != nil {
			log.Fatalf("Failed to create Google Tasks client: %v", err)
		}
	}

	source := capture.NewRecorder(cfg.Capture.SampleRate)
	agent := recorder.NewAgent(cfg, b, pipeline, source, aiClient, store, taskExporterOrNil(tasks))
	if err := agent.Start(ctx); err != nil {
		log.Fatalf("Failed to start recorder agent: %v", err)
	}

	hub := recorder.NewHub(cfg.Monitoring.WSPort)
	hub.Start(ctx, b)

	monitoring.NewHealthServer(monitor, cfg.Monitoring.HealthPort).Start()

	if cfg.Capture.IngestDir != "" {
		watcher, err := recorder.NewIngestWatcher(cfg.Capture.IngestDir, agent.IngestFile)
		if err != nil {
			log.Fatalf("Failed to start ingest watcher: %v", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Ingest watcher exited: %v", err)
			}
		}()
	}

	// One-shot ingest mode: process a single file and exit.
	if len(os.Args) > 2 && os.Args[1] == "--ingest" {
		fmt.Printf("Ingesting %s...\n", os.Args[2])
		if err := agent.IngestFile(ctx, os.Args[2]); err != nil {
			log.Fatalf("Failed to ingest: %v", err)
		}
		return
	}

	fmt.Println("Recorder agent running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("Shutting down, waiting for in-flight runs...")
	agent.Wait()
}

// taskExporterOrNil avoids handing the agent a typed-nil interface value.
func taskExporterOrNil(c *gtasks.Client) recorder.TaskExporter {
	if c == nil {
		return nil
	}
	return c
}
