package simulado

import (
	"sync"
	"testing"
	"time"
)

type manualSource struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func newManualSource() *manualSource {
	return &manualSource{ch: make(chan time.Time)}
}

func (m *manualSource) C() <-chan time.Time { return m.ch }

func (m *manualSource) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualSource) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type countdownRecorder struct {
	mu      sync.Mutex
	ticks   []int
	expires int
}

func (r *countdownRecorder) tick(n int) {
	r.mu.Lock()
	r.ticks = append(r.ticks, n)
	r.mu.Unlock()
}

func (r *countdownRecorder) expire() {
	r.mu.Lock()
	r.expires++
	r.mu.Unlock()
}

func (r *countdownRecorder) snapshot() ([]int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...), r.expires
}

func TestCountdownExpiresOnce(t *testing.T) {
	rec := &countdownRecorder{}
	c := NewCountdown(5, rec.tick, rec.expire)

	for i := 0; i < 6; i++ {
		c.Tick()
	}

	ticks, expires := rec.snapshot()
	want := []int{4, 3, 2, 1, 0}
	if len(ticks) != len(want) {
		t.Fatalf("ticks = %v, want %v", ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Fatalf("ticks = %v, want %v", ticks, want)
		}
	}
	if expires != 1 {
		t.Errorf("expires = %d, want 1", expires)
	}
	if !c.Expired() || c.Remaining() != 0 {
		t.Errorf("Expired() = %v, Remaining() = %d", c.Expired(), c.Remaining())
	}
}

func TestCountdownStopBeforeExpiry(t *testing.T) {
	rec := &countdownRecorder{}
	c := NewCountdown(3, rec.tick, rec.expire)

	c.Tick()
	c.Stop()
	c.Stop()
	c.Tick()
	c.Tick()

	ticks, expires := rec.snapshot()
	if len(ticks) != 1 || ticks[0] != 2 {
		t.Errorf("ticks = %v, want [2]", ticks)
	}
	if expires != 0 {
		t.Errorf("expires = %d, want 0", expires)
	}
	if c.Remaining() != 2 {
		t.Errorf("Remaining() = %d, want 2", c.Remaining())
	}
}

func TestCountdownNegativeLength(t *testing.T) {
	c := NewCountdown(-10, nil, nil)
	if c.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", c.Remaining())
	}
}

func TestCountdownStartDrivesTicks(t *testing.T) {
	src := newManualSource()
	expired := make(chan struct{})
	c := NewCountdown(2, nil, func() { close(expired) })
	c.Start(src)

	src.ch <- time.Now()
	src.ch <- time.Now()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	if !src.isStopped() {
		t.Error("tick source not stopped after expiry")
	}
}

func TestCountdownStartAfterStop(t *testing.T) {
	src := newManualSource()
	c := NewCountdown(2, nil, nil)
	c.Stop()
	c.Start(src)
	if !src.isStopped() {
		t.Error("tick source should be stopped when starting a stopped countdown")
	}
}
