package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cue-stack/internal/models"
	"cue-stack/shared/config"
)

// RemoteClient talks to the persistence service's session CRUD API.
type RemoteClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewRemoteClient returns nil when no persistence service is configured; the
// session store then runs local-only.
func NewRemoteClient(cfg *config.PersistenceConfig) *RemoteClient {
	if cfg.BaseURL == "" {
		return nil
	}
	return &RemoteClient{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ListOptions narrows a session listing.
type ListOptions struct {
	Filter string
	Search string
	Limit  int
	Skip   int
}

// FilterWithoutVideo selects sessions that have a summary but no video yet.
const FilterWithoutVideo = "without_video"

func (c *RemoteClient) SaveSession(ctx context.Context, session *models.Session) (string, error) {
	var reply struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.request(ctx, http.MethodPost, "/sessions", session, &reply); err != nil {
		return "", err
	}
	if reply.SessionID == "" {
		reply.SessionID = session.SessionID
	}
	return reply.SessionID, nil
}

func (c *RemoteClient) ListSessions(ctx context.Context, opts ListOptions) ([]*models.Session, error) {
	q := url.Values{}
	if opts.Filter != "" {
		q.Set("filter", opts.Filter)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}

	path := "/sessions"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var reply struct {
		Sessions []*models.Session `json:"sessions"`
	}
	if err := c.request(ctx, http.MethodGet, path, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Sessions, nil
}

func (c *RemoteClient) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var reply struct {
		Session *models.Session `json:"session"`
	}
	if err := c.request(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &reply); err != nil {
		return nil, err
	}
	if reply.Session == nil {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return reply.Session, nil
}

func (c *RemoteClient) DeleteSession(ctx context.Context, id string) (int, error) {
	var reply struct {
		DeletedCount int `json:"deletedCount"`
	}
	if err := c.request(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, &reply); err != nil {
		return 0, err
	}
	return reply.DeletedCount, nil
}

// UpdateSession backfills fields on an existing session (the only permitted
// post-creation mutation is attaching a generated video).
func (c *RemoteClient) UpdateSession(ctx context.Context, id string, updates map[string]any) error {
	return c.request(ctx, http.MethodPut, "/sessions/"+url.PathEscape(id), updates, nil)
}

func (c *RemoteClient) request(ctx context.Context, method, path string, body, reply any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("persistence service returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if reply != nil && len(data) > 0 {
		if err := json.Unmarshal(data, reply); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
