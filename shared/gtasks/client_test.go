package gtasks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cue-stack/internal/models"

	"golang.org/x/oauth2"
)

func TestTokenRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	tokenFile := filepath.Join(tempDir, "test_token.json")

	originalToken := &oauth2.Token{
		AccessToken:  "original-access-token",
		RefreshToken: "test-refresh-token",
		Expiry:       time.Now().Add(-time.Hour), // Expired
	}

	if err := saveToken(tokenFile, originalToken); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	saved, err := tokenFromFile(tokenFile)
	if err != nil {
		t.Fatalf("Failed to load saved token: %v", err)
	}
	if saved.RefreshToken != originalToken.RefreshToken {
		t.Errorf("Refresh token mismatch: got %s, want %s", saved.RefreshToken, originalToken.RefreshToken)
	}

	// Token file permissions should be owner-only
	info, err := os.Stat(tokenFile)
	if err != nil {
		t.Fatalf("Failed to stat token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Token file permissions = %v, want 0600", info.Mode().Perm())
	}
}

func TestGetToken(t *testing.T) {
	tempDir := t.TempDir()
	tokenFile := filepath.Join(tempDir, "test_token.json")

	oauthConfig := &oauth2.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}

	t.Run("LoadExistingValidToken", func(t *testing.T) {
		validToken := &oauth2.Token{
			AccessToken:  "valid-access-token",
			RefreshToken: "valid-refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		}
		if err := saveToken(tokenFile, validToken); err != nil {
			t.Fatalf("Failed to save token: %v", err)
		}

		token, err := getToken(oauthConfig, tokenFile)
		if err != nil {
			t.Fatalf("Failed to get token: %v", err)
		}
		if token.AccessToken != validToken.AccessToken {
			t.Errorf("Access token mismatch: got %s, want %s", token.AccessToken, validToken.AccessToken)
		}
	})

	t.Run("LoadExpiredTokenWithRefresh", func(t *testing.T) {
		expiredToken := &oauth2.Token{
			AccessToken:  "expired-access-token",
			RefreshToken: "valid-refresh-token",
			Expiry:       time.Now().Add(-time.Hour),
		}
		if err := saveToken(tokenFile, expiredToken); err != nil {
			t.Fatalf("Failed to save token: %v", err)
		}

		// Expired tokens with a refresh token still load; refresh happens lazily
		token, err := getToken(oauthConfig, tokenFile)
		if err != nil {
			t.Fatalf("Failed to get token: %v", err)
		}
		if token.RefreshToken != expiredToken.RefreshToken {
			t.Errorf("Refresh token mismatch: got %s, want %s", token.RefreshToken, expiredToken.RefreshToken)
		}
	})
}

func TestSaveTokenNestedDirectory(t *testing.T) {
	tempDir := t.TempDir()
	tokenFile := filepath.Join(tempDir, "nested", "dir", "token.json")

	testToken := &oauth2.Token{
		AccessToken:  "nested-access",
		RefreshToken: "nested-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}

	if err := saveToken(tokenFile, testToken); err != nil {
		t.Fatalf("Failed to save token to nested directory: %v", err)
	}
	if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
		t.Error("Token file was not created in nested directory")
	}
}

func TestBuildTaskNotes(t *testing.T) {
	session := &models.Session{
		SessionID: "session_123_abc",
		Title:     "Q3 Planning",
	}

	tests := []struct {
		name string
		item models.ActionItem
		want []string
	}{
		{
			name: "FullItem",
			item: models.ActionItem{Task: "Send deck", Owner: "Dana", Deadline: "Friday"},
			want: []string{"From meeting: Q3 Planning", "Owner: Dana", "Deadline: Friday", "Session: session_123_abc"},
		},
		{
			name: "NoOwnerNoDeadline",
			item: models.ActionItem{Task: "Send deck"},
			want: []string{"From meeting: Q3 Planning", "Session: session_123_abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := buildTaskNotes(session, tt.item)
			for _, w := range tt.want {
				if !strings.Contains(notes, w) {
					t.Errorf("Notes missing %q:\n%s", w, notes)
				}
			}
			if tt.item.Owner == "" && strings.Contains(notes, "Owner:") {
				t.Errorf("Notes should not mention owner:\n%s", notes)
			}
		})
	}
}
