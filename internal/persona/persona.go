// Package persona finds the system message that new chats start with.
//
// Without a name the first non-empty SYSTEM.md wins, looked up in the
// working directory, then .gochat/, then ~/.gochat/. A named persona is
// read from personas/<name>.md under .gochat/ or ~/.gochat/.
package persona

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tnglemongrass/gochat/internal/prompts"
)

// ErrNotFound is returned when a named persona has no file.
var ErrNotFound = errors.New("persona not found")

// Persona is a system message and the file it came from.
type Persona struct {
	Content string
	Source  string
}

// Load returns the persona called name, or the SYSTEM.md persona when name
// is empty. Finding no SYSTEM.md is not an error.
func Load(name string) (*Persona, error) {
	return loadIn(".", homeDir(), name)
}

func loadIn(dir, home, name string) (*Persona, error) {
	if name == "" {
		candidates := []string{
			filepath.Join(dir, "SYSTEM.md"),
			filepath.Join(dir, ".gochat", "SYSTEM.md"),
		}
		if home != "" {
			candidates = append(candidates, filepath.Join(home, ".gochat", "SYSTEM.md"))
		}
		return first(candidates)
	}

	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid persona name %q", name)
	}
	file := name + ".md"
	candidates := []string{filepath.Join(dir, ".gochat", "personas", file)}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ".gochat", "personas", file))
	}
	p, err := first(candidates)
	if err != nil {
		return nil, err
	}
	if !p.HasContent() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// first reads the first candidate with content. Missing files are skipped.
func first(paths []string) (*Persona, error) {
	for _, path := range paths {
		p, err := LoadFrom(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.HasContent() {
			return p, nil
		}
	}
	return &Persona{}, nil
}

// LoadFrom reads a persona from a specific path.
func LoadFrom(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	return &Persona{Content: strings.TrimSpace(string(data)), Source: path}, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// SystemMessage returns the persona content, or the default system message
// when there is none.
func (p *Persona) SystemMessage() string {
	if p == nil || p.Content == "" {
		return prompts.DefaultSystemMessage
	}
	return p.Content
}

// HasContent reports whether a persona file was found.
func (p *Persona) HasContent() bool {
	return p != nil && p.Content != ""
}
