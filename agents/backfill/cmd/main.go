package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cue-stack/agents/backfill"
	"cue-stack/shared/config"
	"cue-stack/shared/email"
	"cue-stack/shared/scheduler"
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

	local, err := storage.NewLocalStore(cfg.Persistence.LocalStoreFile)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	store := storage.NewSessionStore(storage.NewRemoteClient(&cfg.Persistence), local)

	var sender *email.Sender
	if cfg.Email.Enabled {
		sender = email.NewSender(&cfg.Email)
	}

	agent := backfill.NewAgent(cfg, store, video.NewClient(cfg), senderOrNil(sender))
	s := scheduler.New(cfg.Backfill.Schedule, cfg.Monitoring.HealthPort, agent)

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}

		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	fmt.Println("Starting scheduler...")

	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

// senderOrNil avoids handing the agent a typed-nil interface value.
func senderOrNil(s *email.Sender) backfill.DigestSender {
	if s == nil {
		return nil
	}
	return s
}
