package models

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Loader fetches and caches a remote models.json registry.
type Loader struct {
	url        string
	httpClient *http.Client

	mu     sync.Mutex
	cached []Descriptor
}

// NewLoader creates a Loader for the registry at url.
func NewLoader(url string) *Loader {
	return &Loader{
		url:        strings.TrimSpace(url),
		httpClient: http.DefaultClient,
	}
}

// Load returns the registry's models, fetching them if not cached.
func (l *Loader) Load(ctx context.Context) ([]Descriptor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("models registry error %d: %s", resp.StatusCode, string(body))
	}

	var reg Registry
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	descs, err := reg.Descriptors()
	if err != nil {
		return nil, err
	}

	l.cached = descs
	return l.cached, nil
}

// Invalidate clears the cached registry.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}
