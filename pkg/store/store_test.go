package store

import (
	"reflect"
	"sync"
	"testing"
)

// recordingListener captures every notification for assertions.
type recordingListener struct {
	id uint64

	mu     sync.Mutex
	diffs  []Diff
	priors []State
}

func newRecordingListener() *recordingListener {
	return &recordingListener{id: NextListenerID()}
}

func (l *recordingListener) OnChange(diff Diff, prior State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.diffs = append(l.diffs, diff)
	l.priors = append(l.priors, prior)
}

func (l *recordingListener) ID() uint64 { return l.id }

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.diffs)
}

func (l *recordingListener) last() (Diff, State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.diffs) == 0 {
		return nil, nil
	}
	return l.diffs[len(l.diffs)-1], l.priors[len(l.priors)-1]
}

func TestSetBasic(t *testing.T) {
	s := New(State{"count": 0})
	l := newRecordingListener()
	s.Subscribe(l)

	next := s.Set(Values(Partial{"count": 1}))

	if next["count"] != 1 {
		t.Errorf("expected count 1, got %v", next["count"])
	}
	if s.State()["count"] != 1 {
		t.Errorf("expected live state count 1, got %v", s.State()["count"])
	}
	if l.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", l.count())
	}

	diff, prior := l.last()
	if len(diff) != 1 || diff["count"] != 1 {
		t.Errorf("expected diff {count: 1}, got %v", diff)
	}
	if prior["count"] != 0 {
		t.Errorf("expected prior count 0, got %v", prior["count"])
	}
}

func TestSetUpdaterSequential(t *testing.T) {
	s := New(State{"count": 0})

	inc := Updater(func(cur State) Partial {
		return Partial{"count": cur["count"].(int) + 1}
	})

	s.Set(inc)
	s.Set(inc)

	if got := s.State()["count"]; got != 2 {
		t.Errorf("expected count 2 after two increments, got %v", got)
	}
}

func TestSetNoOpKeepsReference(t *testing.T) {
	s := New(State{"count": 0})
	l := newRecordingListener()
	s.Subscribe(l)

	before := s.State()

	tests := []struct {
		name   string
		update Update
	}{
		{"empty values", Values(Partial{})},
		{"nil values", Values(nil)},
		{"empty updater", Updater(func(State) Partial { return Partial{} })},
		{"unchanged value", Values(Partial{"count": 0})},
		{"absent key set to nil", Values(Partial{"missing": nil})},
	}

	for _, tt := range tests {
		got := s.Set(tt.update)
		if !sameState(got, before) {
			t.Errorf("%s: expected unchanged state reference", tt.name)
		}
	}

	if l.count() != 0 {
		t.Errorf("expected 0 notifications for no-op updates, got %d", l.count())
	}
	if s.Version() != 0 {
		t.Errorf("expected version 0 after no-op updates, got %d", s.Version())
	}
}

// sameState reports whether two states are the same live map.
func sameState(a, b State) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestDiffMinimality(t *testing.T) {
	s := New(State{"a": 1, "b": 2, "c": 3})
	l := newRecordingListener()
	s.Subscribe(l)

	s.Set(Values(Partial{"a": 1, "b": 20, "d": 4}))

	diff, _ := l.last()
	if len(diff) != 2 {
		t.Fatalf("expected 2 changed keys, got %d (%v)", len(diff), diff)
	}
	if diff["b"] != 20 || diff["d"] != 4 {
		t.Errorf("expected diff {b: 20, d: 4}, got %v", diff)
	}
	if _, ok := diff["a"]; ok {
		t.Error("unchanged key a must not appear in diff")
	}
}

func TestPriorStateFidelity(t *testing.T) {
	s := New(State{"x": "old"})

	var sawPrior State
	var sawLive any
	l := ListenerFunc(func(_ Diff, prior State) {
		sawPrior = prior
		sawLive = s.State()["x"]
	})
	s.Subscribe(l)

	s.Set(Values(Partial{"x": "new"}))

	if sawPrior["x"] != "old" {
		t.Errorf("listener must see pre-update state, got %v", sawPrior["x"])
	}
	if sawLive != "new" {
		t.Errorf("live state must already be advanced during dispatch, got %v", sawLive)
	}
}

func TestSubscribeDeduplicates(t *testing.T) {
	s := New(State{})
	l := newRecordingListener()

	s.Subscribe(l)
	s.Subscribe(l)

	s.Set(Values(Partial{"x": 1}))

	if l.count() != 1 {
		t.Errorf("double-subscribed listener must fire once, got %d", l.count())
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New(State{})
	l := newRecordingListener()

	s.Subscribe(l)
	s.Unsubscribe(l)
	s.Set(Values(Partial{"x": 1}))

	if l.count() != 0 {
		t.Errorf("unsubscribed listener must not fire, got %d", l.count())
	}

	// Absent removal is a no-op.
	s.Unsubscribe(l)
	s.Unsubscribe(nil)
}

func TestDispatchOrder(t *testing.T) {
	s := New(State{})

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		s.Subscribe(ListenerFunc(func(Diff, State) {
			order = append(order, name)
		}))
	}

	s.Set(Values(Partial{"x": 1}))

	want := []string{"first", "second", "third"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("expected dispatch order %v, got %v", want, order)
		}
	}
}

func TestUnsubscribePreservesOrder(t *testing.T) {
	s := New(State{})

	var order []string
	mk := func(name string) Listener {
		return ListenerFunc(func(Diff, State) {
			order = append(order, name)
		})
	}

	a, b, c := mk("a"), mk("b"), mk("c")
	s.Subscribe(a)
	s.Subscribe(b)
	s.Subscribe(c)
	s.Unsubscribe(b)

	s.Set(Values(Partial{"x": 1}))

	if len(order) != 2 || order[0] != "a" || order[1] != "c" {
		t.Errorf("expected dispatch a, c after removing b, got %v", order)
	}
}

func TestReentrantSetFromListener(t *testing.T) {
	s := New(State{"count": 0, "echo": 0})

	var fired int
	echo := ListenerFunc(func(diff Diff, _ State) {
		fired++
		if v, ok := diff["count"]; ok {
			// Nested dispatch runs to completion inline.
			s.Set(Values(Partial{"echo": v}))
		}
	})
	s.Subscribe(echo)

	s.Set(Values(Partial{"count": 7}))

	if got := s.State()["echo"]; got != 7 {
		t.Errorf("expected echo 7 after reentrant set, got %v", got)
	}
	// One pass for count, one nested pass for echo.
	if fired != 2 {
		t.Errorf("expected 2 listener passes, got %d", fired)
	}
}

func TestSubscribeDuringDispatch(t *testing.T) {
	s := New(State{})
	late := newRecordingListener()

	s.Subscribe(ListenerFunc(func(Diff, State) {
		s.Subscribe(late)
	}))

	// The pass that adds the listener iterates a snapshot; the late
	// listener only sees subsequent updates.
	s.Set(Values(Partial{"x": 1}))
	if late.count() != 0 {
		t.Errorf("listener added during dispatch must not see current pass, got %d", late.count())
	}

	s.Set(Values(Partial{"x": 2}))
	if late.count() != 1 {
		t.Errorf("late listener must see the next update, got %d", late.count())
	}
}

func TestListenerPanicAbortsDispatch(t *testing.T) {
	s := New(State{})
	late := newRecordingListener()

	s.Subscribe(ListenerFunc(func(Diff, State) {
		panic("listener failure")
	}))
	s.Subscribe(late)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected listener panic to reach the Set caller")
		}
		if late.count() != 0 {
			t.Errorf("listeners after the panicking one must not fire, got %d", late.count())
		}
		// The update itself landed before dispatch began.
		if s.State()["x"] != 1 {
			t.Errorf("expected state applied despite aborted dispatch, got %v", s.State())
		}
	}()

	s.Set(Values(Partial{"x": 1}))
}

func TestUnsubscribeDuringDispatchStillFires(t *testing.T) {
	s := New(State{})
	victim := newRecordingListener()

	s.Subscribe(ListenerFunc(func(Diff, State) {
		s.Unsubscribe(victim)
	}))
	s.Subscribe(victim)

	// The pass iterates a snapshot taken before the removal.
	s.Set(Values(Partial{"x": 1}))
	if victim.count() != 1 {
		t.Errorf("listener removed during dispatch must still see the current pass, got %d", victim.count())
	}

	s.Set(Values(Partial{"x": 2}))
	if victim.count() != 1 {
		t.Errorf("removed listener must not see later updates, got %d", victim.count())
	}
}

func TestMergePreservesUntouchedKeys(t *testing.T) {
	s := New(State{"keep": "kept", "change": 1})

	next := s.Set(Values(Partial{"change": 2, "add": 3}))

	if next["keep"] != "kept" {
		t.Errorf("untouched key lost in merge: %v", next)
	}
	if next["change"] != 2 || next["add"] != 3 {
		t.Errorf("expected merged state {keep, change: 2, add: 3}, got %v", next)
	}
	if len(next) != 3 {
		t.Errorf("expected 3 keys, got %d", len(next))
	}
}

func TestVersionAdvancesPerEffectiveUpdate(t *testing.T) {
	s := New(State{"x": 0})

	s.Set(Values(Partial{"x": 1}))
	s.Set(Values(Partial{"x": 1})) // no-op
	s.Set(Values(Partial{"x": 2}))

	if s.Version() != 2 {
		t.Errorf("expected version 2, got %d", s.Version())
	}
}

func TestConcurrentSet(t *testing.T) {
	s := New(State{"count": 0})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(Updater(func(cur State) Partial {
					return Partial{"count": cur["count"].(int) + 1}
				}))
			}
		}()
	}
	wg.Wait()

	if got := s.State()["count"]; got != 800 {
		t.Errorf("expected count 800 after concurrent increments, got %v", got)
	}
}

func BenchmarkSet(b *testing.B) {
	s := New(State{"count": 0})
	s.Subscribe(ListenerFunc(func(Diff, State) {}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Set(Values(Partial{"count": i}))
	}
}

func BenchmarkSetNoOp(b *testing.B) {
	s := New(State{"count": 0})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Set(Values(Partial{"count": 0}))
	}
}
