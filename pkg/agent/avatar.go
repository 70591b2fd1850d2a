// ABOUTME: Avatar image cache for agent profiles
// ABOUTME: Downloads avatar URLs into a sha256-keyed cache directory
package agent

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AvatarCache stores downloaded avatars on disk
type AvatarCache struct {
	cacheDir string
	client   *http.Client
}

// NewAvatarCache creates a cache in dir, or in the temp directory when
// dir is empty
func NewAvatarCache(dir string) (*AvatarCache, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "voicewidget-avatars")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &AvatarCache{
		cacheDir: dir,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Fetch returns the local path of the avatar at url, downloading it on a miss
func (a *AvatarCache) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", nil
	}

	hash := sha256.Sum256([]byte(url))
	cachePath := filepath.Join(a.cacheDir, fmt.Sprintf("%x%s", hash[:8], extension(url)))

	if _, err := os.Stat(cachePath); err == nil {
		log.Printf("Avatar cache hit: %s", cachePath)
		return cachePath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build avatar request: %w", err)
	}

	log.Printf("Downloading avatar: %s", url)
	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar download failed: HTTP %d", resp.StatusCode)
	}

	// Write to a temp file first so a failed download never looks cached
	tmp, err := os.CreateTemp(a.cacheDir, "download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}

	log.Printf("Avatar saved: %s", cachePath)
	return cachePath, nil
}

// Dir returns the cache directory
func (a *AvatarCache) Dir() string {
	return a.cacheDir
}

// Cleanup removes the cache directory
func (a *AvatarCache) Cleanup() error {
	return os.RemoveAll(a.cacheDir)
}

// extension extracts the file extension from a URL
func extension(url string) string {
	url = strings.Split(url, "?")[0]

	ext := filepath.Ext(url)
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}
	return ext
}
