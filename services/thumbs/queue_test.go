package thumbs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// gateGen blocks every generation until the gate opens, recording per-source
// attempt counts and peak concurrency.
type gateGen struct {
	mu       sync.Mutex
	attempts map[string]int
	fail     map[string]error

	gate    chan struct{}
	current atomic.Int32
	peak    atomic.Int32
}

func newGateGen() *gateGen {
	return &gateGen{
		attempts: make(map[string]int),
		fail:     make(map[string]error),
		gate:     make(chan struct{}),
	}
}

func (g *gateGen) Generate(ctx context.Context, sourcePath, destPath string) error {
	cur := g.current.Add(1)
	for {
		p := g.peak.Load()
		if cur <= p || g.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	g.mu.Lock()
	g.attempts[sourcePath]++
	g.mu.Unlock()
	<-g.gate
	g.current.Add(-1)
	return g.fail[sourcePath]
}

func (g *gateGen) count(sourcePath string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts[sourcePath]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestScheduleIsIdempotentWhilePendingOrInFlight(t *testing.T) {
	gen := newGateGen()
	q := NewQueue(t.TempDir(), gen)

	for i := 0; i < 5; i++ {
		q.Schedule("vid1", "/media/a.mp4")
	}
	waitFor(t, "job to start", func() bool { return q.Status().InProgress == 1 })
	// still in flight; more schedules must be no-ops
	q.Schedule("vid1", "/media/a.mp4")
	close(gen.gate)
	waitFor(t, "queue drain", func() bool {
		s := q.Status()
		return s.Queued == 0 && s.InProgress == 0
	})
	if got := gen.count("/media/a.mp4"); got != 1 {
		t.Errorf("generation attempts = %d, want exactly 1", got)
	}
}

func TestConcurrencyCappedAtTwo(t *testing.T) {
	gen := newGateGen()
	q := NewQueue(t.TempDir(), gen)

	paths := []string{"/m/1.mp4", "/m/2.mp4", "/m/3.mp4", "/m/4.mp4", "/m/5.mp4"}
	for i, p := range paths {
		q.Schedule("vid"+string(rune('a'+i)), p)
	}
	waitFor(t, "two jobs in flight", func() bool { return q.Status().InProgress == 2 })
	if s := q.Status(); s.Queued != 3 {
		t.Errorf("queued = %d, want 3 behind the cap", s.Queued)
	}
	close(gen.gate)
	waitFor(t, "queue drain", func() bool {
		s := q.Status()
		return s.Queued == 0 && s.InProgress == 0
	})
	if got := gen.peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
	for _, p := range paths {
		if gen.count(p) != 1 {
			t.Errorf("attempts for %s = %d, want 1", p, gen.count(p))
		}
	}
}

func TestSuccessBroadcastsFailureDropsQuietly(t *testing.T) {
	gen := newGateGen()
	gen.fail["/m/bad.mp4"] = errors.New("no video stream")
	q := NewQueue(t.TempDir(), gen)

	_, events := q.Subscribe()
	q.Schedule("goodvid", "/m/good.mp4")
	q.Schedule("badvid", "/m/bad.mp4")
	close(gen.gate)

	select {
	case ev := <-events:
		if ev.VideoID != "goodvid" {
			t.Errorf("event for %s, want goodvid", ev.VideoID)
		}
		if ev.ThumbnailURL != "/thumbnails/goodvid.jpg" {
			t.Errorf("thumbnailUrl = %q", ev.ThumbnailURL)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no thumbnail-ready event")
	}

	waitFor(t, "queue drain", func() bool {
		s := q.Status()
		return s.Queued == 0 && s.InProgress == 0
	})
	select {
	case ev := <-events:
		t.Errorf("unexpected second event %+v; failures must not broadcast", ev)
	default:
	}
}

func TestFreshScheduleRetriesAfterFailure(t *testing.T) {
	gen := newGateGen()
	close(gen.gate) // run synchronously
	gen.fail["/m/flaky.mp4"] = errors.New("boom")
	q := NewQueue(t.TempDir(), gen)

	q.Schedule("flaky", "/m/flaky.mp4")
	waitFor(t, "first attempt", func() bool { return gen.count("/m/flaky.mp4") == 1 })
	waitFor(t, "drain", func() bool { return q.Status().InProgress == 0 })

	q.Schedule("flaky", "/m/flaky.mp4")
	waitFor(t, "second attempt", func() bool { return gen.count("/m/flaky.mp4") == 2 })
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	q := NewQueue(t.TempDir(), newGateGen())
	id, events := q.Subscribe()
	q.Unsubscribe(id)
	if _, open := <-events; open {
		t.Error("channel still open after Unsubscribe")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"abc123XYZ-_", "abc123XYZ-_"},
		{"local-deadbeef", "local-deadbeef"},
		{"weird/../id", "weird_.._id"},
		{"vidéo clip", "video_clip"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
