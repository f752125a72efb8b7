package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driving"
)

// recordingAssistant captures Index and Deindex calls.
type recordingAssistant struct {
	indexed   map[string]string
	metadata  map[string]map[string]any
	deindexed []string
}

func newRecordingAssistant() *recordingAssistant {
	return &recordingAssistant{
		indexed:  make(map[string]string),
		metadata: make(map[string]map[string]any),
	}
}

func (r *recordingAssistant) Index(_ context.Context, id, content string, metadata map[string]any) error {
	r.indexed[id] = content
	r.metadata[id] = metadata
	return nil
}

func (r *recordingAssistant) Deindex(_ context.Context, id string) error {
	r.deindexed = append(r.deindexed, id)
	return nil
}

func (r *recordingAssistant) Ask(context.Context, driving.AskRequest) (driving.AskResult, error) {
	return driving.AskResult{}, nil
}

func (r *recordingAssistant) AskStream(context.Context, driving.AskRequest) (<-chan domain.Event, error) {
	ch := make(chan domain.Event)
	close(ch)
	return ch, nil
}

func (r *recordingAssistant) Stats(context.Context) (domain.Stats, error) {
	return domain.Stats{}, nil
}

func TestWatcherService_IndexExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.md"), []byte("go notes"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "todo.txt"), []byte("buy milk"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte("binary"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.md"), nil, 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0700))

	assistant := newRecordingAssistant()
	watcher, err := NewWatcherService(assistant)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, watcher.indexExisting(context.Background(), dir))

	// Only non-empty .md and .txt files are indexed.
	require.Len(t, assistant.indexed, 2)
	mdPath := filepath.Join(dir, "go.md")
	assert.Equal(t, "go notes", assistant.indexed[mdPath])
	assert.Equal(t, "go.md", assistant.metadata[mdPath]["title"])
	assert.Equal(t, "note", assistant.metadata[mdPath]["type"])
}

func TestWatcherService_IndexExisting_MissingDir(t *testing.T) {
	assistant := newRecordingAssistant()
	watcher, err := NewWatcherService(assistant)
	require.NoError(t, err)
	defer watcher.Close()

	err = watcher.indexExisting(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
