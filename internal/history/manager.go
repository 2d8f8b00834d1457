// Package history records buffer transitions and implements preview and
// undo-by-snapshot on top of them.
//
// The history is append-only and linear. Restoring an entry does not rewind
// the sequence; it records a new transition back to the entry's previous text.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/copyflow-project/copyflow/internal/diff"
	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/model"
	"github.com/copyflow-project/copyflow/pkg/uuidutil"
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDFunc sets the entry id generator.
func WithIDFunc(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// Manager owns the history sequence and the preview pointer.
type Manager struct {
	mu        sync.RWMutex
	entries   []model.HistoryEntry
	previewID string
	now       func() time.Time
	newID     func() string
}

// NewManager creates an empty history.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		now:   time.Now,
		newID: uuidutil.NewV4,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends a transition from prevText to newText. Unchanged text is
// not recorded and the second result is false.
func (m *Manager) Record(prevText, newText, description string) (model.HistoryEntry, bool) {
	if prevText == newText {
		return model.HistoryEntry{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(prevText, newText, description), true
}

func (m *Manager) appendLocked(prevText, newText, description string) model.HistoryEntry {
	entry := model.HistoryEntry{
		ID:                m.newID(),
		Timestamp:         m.now(),
		Text:              newText,
		PreviousText:      prevText,
		ActionDescription: description,
	}
	m.entries = append(m.entries, entry)
	return entry
}

// Preview points the read-only view at an entry.
func (m *Manager) Preview(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findLocked(id); !ok {
		return errclass.ErrEntryNotFound.WithMessagef("history entry %s not found", id)
	}
	m.previewID = id
	return nil
}

// ClearPreview returns to the live buffer.
func (m *Manager) ClearPreview() {
	m.mu.Lock()
	m.previewID = ""
	m.mu.Unlock()
}

// Previewing returns the entry being previewed, if any.
func (m *Manager) Previewing() (model.HistoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.previewID == "" {
		return model.HistoryEntry{}, false
	}
	return m.findLocked(m.previewID)
}

// Restore undoes the change an entry represents. It returns the entry's
// previous text as the new buffer, clears any preview and records the
// reversal from current. A restore that changes nothing records nothing.
func (m *Manager) Restore(id, current string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.findLocked(id)
	if !ok {
		return current, errclass.ErrEntryNotFound.WithMessagef("history entry %s not found", id)
	}
	m.previewID = ""
	if current != entry.PreviousText {
		m.appendLocked(current, entry.PreviousText, UndoDescription(entry))
	}
	return entry.PreviousText, nil
}

// UndoDescription is the action description recorded when entry is restored.
func UndoDescription(entry model.HistoryEntry) string {
	return fmt.Sprintf("Undid changes from %s", entry.Clock())
}

// Entries returns a copy of the history in chronological order.
func (m *Manager) Entries() []model.HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Get returns the entry with the given id.
func (m *Manager) Get(id string) (model.HistoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(id)
}

// Latest returns the most recent entry.
func (m *Manager) Latest() (model.HistoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return model.HistoryEntry{}, false
	}
	return m.entries[len(m.entries)-1], true
}

// Reset drops all entries and the preview.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.previewID = ""
	m.mu.Unlock()
}

// View is what the read-only preview surface displays.
type View struct {
	Entry  model.HistoryEntry `json:"entry"`
	Text   string             `json:"text"`
	Tokens []diff.Token       `json:"tokens"`
}

// PreviewView returns the previewed entry's text and its diff against the
// text it replaced.
func (m *Manager) PreviewView() (View, bool) {
	entry, ok := m.Previewing()
	if !ok {
		return View{}, false
	}
	return View{
		Entry:  entry,
		Text:   entry.Text,
		Tokens: diff.Diff(entry.PreviousText, entry.Text),
	}, true
}

func (m *Manager) findLocked(id string) (model.HistoryEntry, bool) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, true
		}
	}
	return model.HistoryEntry{}, false
}
