// Package storage persists sessions against the remote persistence service,
// falling back to a local JSON-file store whenever the remote is unreachable.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"cue-stack/internal/models"
)

// Storage keys. Sessions live as an array under "sessions", matching the
// extension-storage layout the library app reads.
const (
	sessionsKey = "sessions"
	stateKey    = "pipeline_state"
)

// SessionStore is the remote-first, local-fallback session repository.
// Remote failures are absorbed: callers always get a usable result plus the
// sessionId that was actually used.
type SessionStore struct {
	remote *RemoteClient // nil means local-only
	local  *LocalStore
}

func NewSessionStore(remote *RemoteClient, local *LocalStore) *SessionStore {
	return &SessionStore{remote: remote, local: local}
}

// NewSessionID assigns a globally unique session id. Ids are assigned before
// any persistence attempt so a local fallback keeps the same identity.
func NewSessionID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}

// Save persists a session, remote first. On any remote failure the session is
// written to the local store silently; the returned id is whichever one was
// actually used.
func (s *SessionStore) Save(ctx context.Context, session *models.Session) (string, error) {
	if session.SessionID == "" {
		return "", fmt.Errorf("session has no id")
	}

	if s.remote != nil {
		id, err := s.remote.SaveSession(ctx, session)
		if err == nil {
			session.SessionID = id
			return id, nil
		}
		log.Printf("Remote save failed for session %s, falling back to local store: %v", session.SessionID, err)
	}

	if err := s.saveLocal(session); err != nil {
		return "", fmt.Errorf("local save failed: %w", err)
	}
	return session.SessionID, nil
}

// List fetches sessions, newest first.
func (s *SessionStore) List(ctx context.Context, opts ListOptions) ([]*models.Session, error) {
	if s.remote != nil {
		sessions, err := s.remote.ListSessions(ctx, opts)
		if err == nil {
			return sessions, nil
		}
		log.Printf("Remote list failed, falling back to local store: %v", err)
	}
	return s.listLocal(opts)
}

// Get fetches one session by id.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if s.remote != nil {
		session, err := s.remote.GetSession(ctx, id)
		if err == nil {
			return session, nil
		}
		log.Printf("Remote get failed for session %s, falling back to local store: %v", id, err)
	}

	sessions, err := s.loadLocal()
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.SessionID == id {
			return session, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

// Delete removes a session everywhere it may live.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	var remoteErr error
	if s.remote != nil {
		if _, err := s.remote.DeleteSession(ctx, id); err != nil {
			remoteErr = err
			log.Printf("Remote delete failed for session %s: %v", id, err)
		}
	}

	sessions, err := s.loadLocal()
	if err != nil {
		return err
	}
	kept := sessions[:0]
	removed := false
	for _, session := range sessions {
		if session.SessionID == id {
			removed = true
			continue
		}
		kept = append(kept, session)
	}
	if removed {
		if err := s.local.Set(sessionsKey, kept); err != nil {
			return err
		}
		return nil
	}
	return remoteErr
}

// AttachVideo backfills the video URL onto a stored session. This is the sole
// permitted mutation after creation.
func (s *SessionStore) AttachVideo(ctx context.Context, id, videoURL string) error {
	updates := map[string]any{
		"hasVideo":   true,
		"videoUrl":   videoURL,
		"videoError": "",
	}

	if s.remote != nil {
		err := s.remote.UpdateSession(ctx, id, updates)
		if err == nil {
			return nil
		}
		log.Printf("Remote video backfill failed for session %s, falling back to local store: %v", id, err)
	}

	sessions, err := s.loadLocal()
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session.SessionID == id {
			session.HasVideo = true
			session.VideoURL = videoURL
			session.VideoError = ""
			return s.local.Set(sessionsKey, sessions)
		}
	}
	return fmt.Errorf("session %s not found", id)
}

// SaveState snapshots the pipeline state so a reopened surface can read it.
func (s *SessionStore) SaveState(state models.PipelineState) error {
	return s.local.Set(stateKey, state)
}

// LoadState returns the last snapshotted pipeline state, if any.
func (s *SessionStore) LoadState() (models.PipelineState, bool, error) {
	var state models.PipelineState
	found, err := s.local.Get(stateKey, &state)
	return state, found, err
}

func (s *SessionStore) loadLocal() ([]*models.Session, error) {
	var sessions []*models.Session
	if _, err := s.local.Get(sessionsKey, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionStore) saveLocal(session *models.Session) error {
	sessions, err := s.loadLocal()
	if err != nil {
		return err
	}
	// Newest first, same order the remote reports.
	sessions = append([]*models.Session{session}, sessions...)
	return s.local.Set(sessionsKey, sessions)
}

func (s *SessionStore) listLocal(opts ListOptions) ([]*models.Session, error) {
	sessions, err := s.loadLocal()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Session, 0, len(sessions))
	for _, session := range sessions {
		if opts.Filter == FilterWithoutVideo && (session.HasVideo || session.Summary == nil) {
			continue
		}
		if opts.Search != "" && !matchesSearch(session, opts.Search) {
			continue
		}
		filtered = append(filtered, session)
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[opts.Skip:]
	}
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

func matchesSearch(session *models.Session, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(session.Title), needle) {
		return true
	}
	if session.Summary != nil && strings.Contains(strings.ToLower(session.Summary.Title), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(session.Transcript), needle)
}
