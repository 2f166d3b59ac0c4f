package ltest

import (
	"reflect"
	"sync"
	"testing"

	"github.com/lumen-dev/lumen/pkg/store"
)

// Change is one recorded store notification.
type Change struct {
	Diff  store.Diff
	Prior store.State
}

// Recorder is a store.Listener that captures every notification.
type Recorder struct {
	id uint64

	mu      sync.Mutex
	changes []Change
}

// NewRecorder creates a recorder with a fresh listener identity.
func NewRecorder() *Recorder {
	return &Recorder{id: store.NextListenerID()}
}

// OnChange implements store.Listener.
func (r *Recorder) OnChange(diff store.Diff, prior store.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, Change{Diff: diff, Prior: prior})
}

// ID implements store.Listener.
func (r *Recorder) ID() uint64 { return r.id }

// Count returns the number of notifications received.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

// Last returns the most recent change, or a zero Change if none.
func (r *Recorder) Last() Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return Change{}
	}
	return r.changes[len(r.changes)-1]
}

// Changes returns a copy of all recorded changes.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Change, len(r.changes))
	copy(out, r.changes)
	return out
}

// ExpectState asserts that a state equals the expected mapping.
func ExpectState(t *testing.T, got store.State, want map[string]any) {
	t.Helper()
	if !reflect.DeepEqual(map[string]any(got), want) {
		t.Errorf("expected state %v, got %v", want, got)
	}
}

// ExpectDiff asserts that a diff equals the expected mapping.
func ExpectDiff(t *testing.T, got store.Diff, want map[string]any) {
	t.Helper()
	if !reflect.DeepEqual(map[string]any(got), want) {
		t.Errorf("expected diff %v, got %v", want, got)
	}
}
