package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnglemongrass/gochat/internal/prompts"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SYSTEM.md")
	writeFile(t, path, "You are a pirate.\n")

	p, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "You are a pirate.", p.SystemMessage())
	assert.Equal(t, path, p.Source)
}

func TestLoadFromMissing(t *testing.T) {
	_, err := LoadFrom("/nonexistent/SYSTEM.md")
	assert.Error(t, err)
}

func TestSystemMessageDefault(t *testing.T) {
	assert.Equal(t, prompts.DefaultSystemMessage, (&Persona{}).SystemMessage())
	var p *Persona
	assert.Equal(t, prompts.DefaultSystemMessage, p.SystemMessage())
	assert.False(t, p.HasContent())
}

func TestLoadNothingFound(t *testing.T) {
	p, err := loadIn(t.TempDir(), t.TempDir(), "")
	require.NoError(t, err)
	assert.False(t, p.HasContent())
	assert.Equal(t, prompts.DefaultSystemMessage, p.SystemMessage())
}

func TestLoadFirstSystemFileWins(t *testing.T) {
	dir, home := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(dir, "SYSTEM.md"), "Local")
	writeFile(t, filepath.Join(dir, ".gochat", "SYSTEM.md"), "Project")
	writeFile(t, filepath.Join(home, ".gochat", "SYSTEM.md"), "Global")

	p, err := loadIn(dir, home, "")
	require.NoError(t, err)
	assert.Equal(t, "Local", p.Content)
	assert.Equal(t, filepath.Join(dir, "SYSTEM.md"), p.Source)
}

func TestLoadSkipsEmptySystemFile(t *testing.T) {
	dir, home := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(dir, "SYSTEM.md"), "  \n")
	writeFile(t, filepath.Join(home, ".gochat", "SYSTEM.md"), "Global")

	p, err := loadIn(dir, home, "")
	require.NoError(t, err)
	assert.Equal(t, "Global", p.Content)
}

func TestLoadNamedPersona(t *testing.T) {
	dir, home := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(dir, "SYSTEM.md"), "Local")
	writeFile(t, filepath.Join(home, ".gochat", "personas", "terse.md"), "Be terse.")

	p, err := loadIn(dir, home, "terse")
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", p.SystemMessage())
}

func TestLoadNamedPersonaProjectFirst(t *testing.T) {
	dir, home := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(dir, ".gochat", "personas", "terse.md"), "Project terse.")
	writeFile(t, filepath.Join(home, ".gochat", "personas", "terse.md"), "Global terse.")

	p, err := loadIn(dir, home, "terse")
	require.NoError(t, err)
	assert.Equal(t, "Project terse.", p.Content)
}

func TestLoadNamedPersonaMissing(t *testing.T) {
	_, err := loadIn(t.TempDir(), t.TempDir(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadNamedPersonaInvalidName(t *testing.T) {
	_, err := loadIn(t.TempDir(), t.TempDir(), "../secrets")
	assert.Error(t, err)
}
