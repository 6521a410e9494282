package gtasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cue-stack/internal/models"
	"cue-stack/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

// defaultTaskList is the user's primary Google Tasks list.
const defaultTaskList = "@default"

type Client struct {
	service     *tasks.Service
	config      *config.TasksConfig
	oauthConfig *oauth2.Config
	token       *oauth2.Token
}

func NewClient(cfg *config.TasksConfig) (*Client, error) {
	ctx := context.Background()

	// Create OAuth2 config for the device authorization flow.
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/tasks"},
		Endpoint:     google.Endpoint,
	}

	token, err := getToken(oauthConfig, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	// Token source that auto-refreshes and saves the token
	tokenSource := &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)

	service, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}

	return &Client{
		service:     service,
		config:      cfg,
		oauthConfig: oauthConfig,
		token:       token,
	}, nil
}

// ExportActionItems inserts one task per action item into the user's default
// task list. It returns the number of tasks created; items that fail to
// insert are logged and skipped so one bad item doesn't block the rest.
func (c *Client) ExportActionItems(ctx context.Context, session *models.Session) (int, error) {
	if session == nil || session.Summary == nil {
		return 0, nil
	}
	items := session.Summary.ActionItems
	if len(items) == 0 {
		return 0, nil
	}

	created := 0
	for _, item := range items {
		task := &tasks.Task{
			Title: item.Task,
			Notes: buildTaskNotes(session, item),
		}

		if _, err := c.service.Tasks.Insert(defaultTaskList, task).Context(ctx).Do(); err != nil {
			log.Printf("Failed to insert task %q: %v", item.Task, err)
			continue
		}
		created++
	}

	log.Printf("Exported %d/%d action items to Google Tasks for session %s",
		created, len(items), session.SessionID)

	if created == 0 {
		return 0, fmt.Errorf("all %d task inserts failed", len(items))
	}
	return created, nil
}

func buildTaskNotes(session *models.Session, item models.ActionItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From meeting: %s\n", session.Title)
	if item.Owner != "" {
		fmt.Fprintf(&b, "Owner: %s\n", item.Owner)
	}
	if item.Deadline != "" {
		fmt.Fprintf(&b, "Deadline: %s\n", item.Deadline)
	}
	fmt.Fprintf(&b, "Session: %s", session.SessionID)
	return b.String()
}

// tokenSaver wraps an oauth2.TokenSource to automatically save refreshed tokens.
// It intercepts token refresh operations and persists the new token to disk,
// ensuring that refreshed tokens survive application restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex // Protects concurrent token refresh operations
}

// Token implements oauth2.TokenSource interface.
// It returns the current token, refreshing it if necessary and saving any
// refreshed token to disk.
func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tokenSource := ts.config.TokenSource(context.Background(), ts.token)

	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		log.Println("Token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			log.Printf("Warning: Failed to save refreshed token: %v", err)
		}
	}

	return newToken, nil
}

// getToken retrieves an OAuth2 token from disk or initiates the OAuth flow if
// needed. It prioritizes loading existing tokens with refresh tokens, even if
// expired, as they can be automatically refreshed.
func getToken(config *oauth2.Config, tokenFile string) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err == nil {
		// Even if token appears expired, keep it if it has a refresh token
		if tok.RefreshToken != "" {
			log.Printf("Loaded token from file (expires: %v)", tok.Expiry)
			return tok, nil
		}
		if tok.Valid() {
			return tok, nil
		}
	}

	log.Println("Getting new token from web...")
	tok, err = getTokenFromWeb(config)
	if err != nil {
		return nil, err
	}

	if err := saveToken(tokenFile, tok); err != nil {
		log.Printf("Warning: Failed to save token: %v", err)
	}
	return tok, nil
}

func getTokenFromWeb(config *oauth2.Config) (*oauth2.Token, error) {
	if tok, err := getTokenWithDeviceFlow(config); err == nil {
		return tok, nil
	} else {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			log.Printf("Device authorization response failed (%s): %s", retrieveErr.Response.Status, strings.TrimSpace(string(retrieveErr.Body)))
		} else {
			log.Printf("Device authorization flow failed: %v", err)
		}

		return nil, fmt.Errorf("device authorization failed: %w. Ensure your OAuth client is created as 'TVs and Limited Input devices' and that the Google Tasks API is enabled.", err)
	}
}

func getTokenWithDeviceFlow(config *oauth2.Config) (*oauth2.Token, error) {
	ctx := context.Background()

	resp, err := config.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Printf("GOOGLE TASKS DEVICE AUTHORIZATION REQUIRED\n")
	fmt.Printf("%s\n", strings.Repeat("=", 80))
	fmt.Printf("1. Visit %s in your browser (any device works).\n", resp.VerificationURI)
	fmt.Printf("2. Enter this code when prompted: %s\n\n", resp.UserCode)
	if completeURL := strings.TrimSpace(resp.VerificationURIComplete); completeURL != "" {
		fmt.Printf("   If Google accepts direct links for your account, you can instead open:\n\n")
		fmt.Printf("   %s\n\n", completeURL)
	}
	fmt.Printf("Waiting for authorization to complete... (Ctrl+C to cancel)\n")
	fmt.Printf("%s\n", strings.Repeat("-", 80))

	tok, err := config.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}

	fmt.Printf("\n✅ Authorization successful! Token saved.\n")
	fmt.Printf("%s\n\n", strings.Repeat("=", 80))

	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
