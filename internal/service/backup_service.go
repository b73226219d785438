package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
)

// backupFileName is the blob identifier inside the gist.
const backupFileName = "watchlist.json"

// BackupService stores and retrieves the watch-list blob through the
// GitHub Gist API — a plain authenticated PUT/GET key-value channel. Any
// service with the same contract would do; the gist is simply what the
// original tool used.
type BackupService struct {
	httpClient *http.Client
	apiBaseURL string
	gistID     string
	token      string
}

// NewBackupService creates a backup channel for the given gist. The token
// may be supplied fernet-encrypted; when fernetKey is non-empty it is
// used to decrypt the token at startup so the plaintext never sits in the
// environment.
func NewBackupService(gistID, token, fernetKey string) (*BackupService, error) {
	if fernetKey != "" && token != "" {
		key, err := fernet.DecodeKey(fernetKey)
		if err != nil {
			return nil, fmt.Errorf("invalid backup token key: %w", err)
		}
		decrypted := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{key})
		if decrypted == nil {
			return nil, fmt.Errorf("failed to decrypt backup token")
		}
		token = string(decrypted)
	}

	return &BackupService{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiBaseURL: "https://api.github.com",
		gistID:     gistID,
		token:      token,
	}, nil
}

// WithBaseURL points the service at a different API host. Used by tests.
func (s *BackupService) WithBaseURL(base string) *BackupService {
	s.apiBaseURL = base
	return s
}

// Configured reports whether both the gist ID and token are set.
func (s *BackupService) Configured() bool {
	return s.gistID != "" && s.token != ""
}

// gistPayload is the request and response shape of the gist file API.
type gistPayload struct {
	Files map[string]gistFile `json:"files"`
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// PutBlob uploads the watch-list content to the gist.
func (s *BackupService) PutBlob(ctx context.Context, content []byte) error {
	if !s.Configured() {
		return apperrors.ErrBackupNotConfigured
	}

	payload, err := json.Marshal(gistPayload{
		Files: map[string]gistFile{backupFileName: {Content: string(content)}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode backup payload: %w", err)
	}

	url := fmt.Sprintf("%s/gists/%s", s.apiBaseURL, s.gistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build backup request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backup upload failed: %v: %w", err, apperrors.ErrBackupFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backup upload returned status %d: %w", resp.StatusCode, apperrors.ErrBackupFailed)
	}
	return nil
}

// GetBlob downloads the watch-list content from the gist.
func (s *BackupService) GetBlob(ctx context.Context) ([]byte, error) {
	if !s.Configured() {
		return nil, apperrors.ErrBackupNotConfigured
	}

	url := fmt.Sprintf("%s/gists/%s", s.apiBaseURL, s.gistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build restore request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("restore download failed: %v: %w", err, apperrors.ErrBackupFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("restore download returned status %d: %w", resp.StatusCode, apperrors.ErrBackupFailed)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read restore response: %w", err)
	}

	var payload gistPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse restore response: %w", err)
	}

	file, ok := payload.Files[backupFileName]
	if !ok {
		return nil, fmt.Errorf("gist has no %s: %w", backupFileName, apperrors.ErrBackupFailed)
	}
	if file.Truncated {
		return nil, fmt.Errorf("gist file is truncated: %w", apperrors.ErrBackupFailed)
	}

	return []byte(file.Content), nil
}

func (s *BackupService) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
}
