package track_test

import (
	"testing"

	"github.com/lumen-dev/lumen/pkg/store"
	"github.com/lumen-dev/lumen/pkg/track"
)

func TestDependencyMinimality(t *testing.T) {
	s := store.New(store.State{"x": 1, "y": 1})
	var trig track.Version
	c := track.NewConsumer(s, &trig)
	c.Mount()
	defer c.Unmount()

	view := c.View()
	_ = view.Get("x")

	// Untracked key: no re-render.
	s.Set(store.Values(store.Partial{"y": 2}))
	if trig.Current() != 0 {
		t.Errorf("change to unread key must not trigger, got %d invalidations", trig.Current())
	}

	// Tracked key: re-render.
	s.Set(store.Values(store.Partial{"x": 2}))
	if trig.Current() != 1 {
		t.Errorf("change to read key must trigger once, got %d invalidations", trig.Current())
	}
}

func TestTrackingMonotonicity(t *testing.T) {
	s := store.New(store.State{"a": 1})
	var trig track.Version
	c := track.NewConsumer(s, &trig)
	c.Mount()
	defer c.Unmount()

	// First pass reads a; later passes never read it again.
	_ = c.View().Get("a")

	s.Set(store.Values(store.Partial{"a": 2}))
	s.Set(store.Values(store.Partial{"a": 3}))

	if trig.Current() != 2 {
		t.Errorf("past reads must keep triggering, got %d invalidations", trig.Current())
	}
}

func TestZeroReadsNeverTriggers(t *testing.T) {
	s := store.New(store.State{"x": 1})
	var trig track.Version
	c := track.NewConsumer(s, &trig)
	c.Mount()
	defer c.Unmount()

	s.Set(store.Values(store.Partial{"x": 2}))
	s.Set(store.Values(store.Partial{"y": 1}))

	if trig.Current() != 0 {
		t.Errorf("consumer that read nothing must not trigger, got %d", trig.Current())
	}
}

func TestRepeatedReadsAreIdempotent(t *testing.T) {
	s := store.New(store.State{"x": 1})
	var trig track.Version
	c := track.NewConsumer(s, &trig)
	c.Mount()
	defer c.Unmount()

	view := c.View()
	_ = view.Get("x")
	_ = view.Get("x")
	_ = view.Get("x")

	if got := len(view.Keys()); got != 1 {
		t.Errorf("expected 1 recorded key, got %d", got)
	}

	s.Set(store.Values(store.Partial{"x": 2}))
	if trig.Current() != 1 {
		t.Errorf("expected a single invalidation per update, got %d", trig.Current())
	}
}

func TestAbsentKeyReadIsTracked(t *testing.T) {
	s := store.New(store.State{})
	var trig track.Version
	c := track.NewConsumer(s, &trig)
	c.Mount()
	defer c.Unmount()

	view := c.View()
	if got := view.Get("later"); got != nil {
		t.Errorf("absent key must read as nil, got %v", got)
	}
	if _, ok := view.GetOK("later"); ok {
		t.Error("absent key must report not present")
	}

	// Introducing the key must still trigger.
	s.Set(store.Values(store.Partial{"later": "here"}))
	if trig.Current() != 1 {
		t.Errorf("update introducing a tracked key must trigger, got %d", trig.Current())
	}
}

func TestViewReadsLiveValue(t *testing.T) {
	s := store.New(store.State{"x": "old"})
	var trig track.Version
	c := track.NewConsumer(s, &trig)
	c.Mount()
	defer c.Unmount()

	view := c.View()
	if got := view.Get("x"); got != "old" {
		t.Fatalf("expected old, got %v", got)
	}

	s.Set(store.Values(store.Partial{"x": "new"}))
	if got := view.Get("x"); got != "new" {
		t.Errorf("view must read the live value, got %v", got)
	}
}

func TestUnmountStopsTriggering(t *testing.T) {
	s := store.New(store.State{"x": 1})
	var trig track.Version
	c := track.NewConsumer(s, &trig)
	c.Mount()

	_ = c.View().Get("x")
	c.Unmount()

	s.Set(store.Values(store.Partial{"x": 2}))
	if trig.Current() != 0 {
		t.Errorf("unmounted consumer must not trigger, got %d", trig.Current())
	}
}
