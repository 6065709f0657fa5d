package runtime

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/wikidb/internal/plugin"
)

// testLocator returns a locator for a fresh database file under t.TempDir.
func testLocator(t *testing.T) string {
	t.Helper()
	return "sqlite:///" + filepath.ToSlash(filepath.Join(t.TempDir(), "wiki.db"))
}

// openTestEngine opens a file-backed SQLite engine closed at test cleanup.
func openTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := Open(context.Background(), testLocator(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// recordingHooks counts lifecycle callbacks per session.
type recordingHooks struct {
	mu       sync.Mutex
	acquired map[uuid.UUID]int
	released map[uuid.UUID]int
	failures []error
}

var _ plugin.Hooks = (*recordingHooks)(nil)

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{
		acquired: map[uuid.UUID]int{},
		released: map[uuid.UUID]int{},
	}
}

func (h *recordingHooks) AfterAcquire(_ context.Context, ev plugin.SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.acquired[ev.ID]++
}

func (h *recordingHooks) AfterRelease(_ context.Context, ev plugin.SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released[ev.ID]++
}

func (h *recordingHooks) AcquireFailed(_ context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, err)
}

func (h *recordingHooks) releases(id uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released[id]
}

func (h *recordingHooks) totalReleases() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.released {
		n += c
	}
	return n
}
