package backfill

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"cue-stack/internal/models"
	"cue-stack/shared/config"
	"cue-stack/shared/scheduler"
	"cue-stack/shared/storage"
)

type fakeStore struct {
	sessions  []*models.Session
	gotOpts   storage.ListOptions
	attached  map[string]string
	listErr   error
	attachErr error
}

func (f *fakeStore) List(ctx context.Context, opts storage.ListOptions) ([]*models.Session, error) {
	f.gotOpts = opts
	return f.sessions, f.listErr
}

func (f *fakeStore) AttachVideo(ctx context.Context, id, videoURL string) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	if f.attached == nil {
		f.attached = make(map[string]string)
	}
	f.attached[id] = videoURL
	return nil
}

type fakeGenerator struct {
	urls    map[string]string // prompt -> url
	failFor string            // prompt substring that fails
	prompts []string
	styles  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, visualStyle string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.styles = append(f.styles, visualStyle)
	if f.failFor != "" && strings.Contains(prompt, f.failFor) {
		return "", fmt.Errorf("generation failed")
	}
	if url, ok := f.urls[prompt]; ok {
		return url, nil
	}
	return "https://videos.example.com/generated.mp4", nil
}

type fakeSender struct {
	reports []*models.BackfillReport
	err     error
}

func (f *fakeSender) SendBackfillDigest(report *models.BackfillReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Backfill.Limit = 10
	return cfg
}

func sessionWithScript(id string) *models.Session {
	return &models.Session{
		SessionID: id,
		Title:     "Session " + id,
		Summary:   &models.SummaryRecord{Title: "Session " + id},
		VideoScript: &models.VideoScriptRecord{
			SelectedStyle: models.StyleStory,
			VeoPrompt:     "script prompt for " + id,
		},
	}
}

func sessionWithoutScript(id string) *models.Session {
	return &models.Session{
		SessionID: id,
		Title:     "Session " + id,
		Summary: &models.SummaryRecord{
			Title:   "Session " + id,
			Summary: []string{"a thing happened"},
		},
	}
}

// runEvents collects scheduler callbacks for assertions.
type runEvents struct {
	successes []scheduler.Metrics
	partials  []error
	criticals []error
}

func (r *runEvents) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess:         func(m scheduler.Metrics, _ time.Duration) { r.successes = append(r.successes, m) },
		OnPartialFailure:  func(err error, _ time.Duration) { r.partials = append(r.partials, err) },
		OnCriticalFailure: func(err error, _ time.Duration) { r.criticals = append(r.criticals, err) },
	}
}

func TestRunOnceBackfillsSessions(t *testing.T) {
	store := &fakeStore{sessions: []*models.Session{
		sessionWithScript("s1"),
		sessionWithoutScript("s2"),
	}}
	gen := &fakeGenerator{}
	ev := &runEvents{}

	agent := NewAgent(testConfig(), store, gen, nil)
	if err := agent.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := agent.RunOnce(context.Background(), ev.events()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if store.gotOpts.Filter != storage.FilterWithoutVideo {
		t.Errorf("List filter = %q, want %q", store.gotOpts.Filter, storage.FilterWithoutVideo)
	}
	if store.gotOpts.Limit != 10 {
		t.Errorf("List limit = %d, want 10", store.gotOpts.Limit)
	}
	if len(store.attached) != 2 {
		t.Fatalf("Attached videos = %d, want 2", len(store.attached))
	}

	// s1 has a script: its dedicated prompt and style are used.
	if gen.prompts[0] != "script prompt for s1" {
		t.Errorf("Prompt for s1 = %q, want the script's veoPrompt", gen.prompts[0])
	}
	if gen.styles[0] != models.StyleStory {
		t.Errorf("Style for s1 = %q, want %q", gen.styles[0], models.StyleStory)
	}
	// s2 has no script: a summary-derived prompt is built instead.
	if !strings.Contains(gen.prompts[1], "a thing happened") {
		t.Errorf("Prompt for s2 = %q, want one derived from the summary", gen.prompts[1])
	}

	if len(ev.successes) != 1 {
		t.Fatalf("Success events = %d, want 1", len(ev.successes))
	}
	m := ev.successes[0].(Metrics)
	if m.Scanned != 2 || m.Generated != 2 || m.Failed != 0 {
		t.Errorf("Metrics = %+v, want 2 scanned, 2 generated", m)
	}
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	store := &fakeStore{sessions: []*models.Session{
		sessionWithScript("s1"),
		sessionWithScript("s2"),
	}}
	gen := &fakeGenerator{failFor: "s1"}
	ev := &runEvents{}

	agent := NewAgent(testConfig(), store, gen, nil)
	if err := agent.RunOnce(context.Background(), ev.events()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(store.attached) != 1 {
		t.Fatalf("Attached videos = %d, want 1", len(store.attached))
	}
	if _, ok := store.attached["s2"]; !ok {
		t.Error("s2 should have been backfilled despite s1 failing")
	}
	if len(ev.partials) != 1 {
		t.Errorf("Partial failure events = %d, want 1", len(ev.partials))
	}

	m := ev.successes[0].(Metrics)
	if m.Generated != 1 || m.Failed != 1 {
		t.Errorf("Metrics = %+v, want 1 generated, 1 failed", m)
	}
}

func TestRunOnceListFailureIsCritical(t *testing.T) {
	store := &fakeStore{listErr: fmt.Errorf("remote down")}
	ev := &runEvents{}

	agent := NewAgent(testConfig(), store, &fakeGenerator{}, nil)
	if err := agent.RunOnce(context.Background(), ev.events()); err == nil {
		t.Fatal("RunOnce() should fail when listing fails")
	}
	if len(ev.criticals) != 1 {
		t.Errorf("Critical failure events = %d, want 1", len(ev.criticals))
	}
	if len(ev.successes) != 0 {
		t.Errorf("Success events = %d, want 0", len(ev.successes))
	}
}

func TestRunOnceSkipsSessionsWithoutSummary(t *testing.T) {
	store := &fakeStore{sessions: []*models.Session{
		{SessionID: "s1", Title: "no summary"},
		sessionWithScript("s2"),
	}}
	gen := &fakeGenerator{}

	agent := NewAgent(testConfig(), store, gen, nil)
	if err := agent.RunOnce(context.Background(), &scheduler.AgentEvents{}); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("Generations = %d, want 1 (summaryless session skipped)", len(gen.prompts))
	}
}

func TestRunOnceSendsDigest(t *testing.T) {
	store := &fakeStore{sessions: []*models.Session{sessionWithScript("s1")}}
	sender := &fakeSender{}
	ev := &runEvents{}

	agent := NewAgent(testConfig(), store, &fakeGenerator{}, sender)
	if err := agent.RunOnce(context.Background(), ev.events()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(sender.reports) != 1 {
		t.Fatalf("Digest reports = %d, want 1", len(sender.reports))
	}
	report := sender.reports[0]
	if report.Succeeded != 1 || report.Failed != 0 || len(report.Sessions) != 1 {
		t.Errorf("Report = %+v, want 1 succeeded session", report)
	}
	if report.Sessions[0].VideoURL == "" {
		t.Error("Report item should carry the generated video URL")
	}

	m := ev.successes[0].(Metrics)
	if !m.EmailSent {
		t.Error("Metrics should record the digest email")
	}
}

func TestRunOnceNoSessionsNoDigest(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{}

	agent := NewAgent(testConfig(), store, &fakeGenerator{}, sender)
	if err := agent.RunOnce(context.Background(), &scheduler.AgentEvents{}); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(sender.reports) != 0 {
		t.Errorf("Digest reports = %d, want 0 for an empty run", len(sender.reports))
	}
}

func TestMetricsSummary(t *testing.T) {
	tests := []struct {
		name    string
		metrics Metrics
		want    string
	}{
		{"Empty", Metrics{}, "no sessions awaiting video"},
		{"AllGood", Metrics{Scanned: 3, Generated: 3}, "3/3 sessions backfilled (0 failed)"},
		{"Mixed", Metrics{Scanned: 3, Generated: 2, Failed: 1}, "2/3 sessions backfilled (1 failed)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.metrics.GetSummary(); got != tt.want {
				t.Errorf("GetSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
