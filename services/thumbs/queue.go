package thumbs

import (
	"context"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mozillazg/go-unidecode"

	"tubeshelf/internal/metrics"
)

// maxConcurrent bounds simultaneous generations; thumbnail extraction is
// CPU- and disk-heavy enough that two at a time is plenty.
const maxConcurrent = 2

// Job is one queued thumbnail generation.
type Job struct {
	VideoID    string
	SourcePath string
	EnqueuedAt time.Time
}

// Status is a snapshot of the queue depth.
type Status struct {
	Queued     int `json:"queued"`
	InProgress int `json:"inProgress"`
}

// Event is broadcast to listeners when a thumbnail becomes available.
type Event struct {
	VideoID      string `json:"videoId"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Generator produces a thumbnail file for a video file.
type Generator interface {
	Generate(ctx context.Context, sourcePath, destPath string) error
}

// Queue generates thumbnails off the critical path. Scheduling is
// fire-and-forget and idempotent: a (videoID, sourcePath) pair lives in at
// most one of the pending or in-flight sets, and duplicate schedules while it
// is there are silent no-ops. Failures are logged and dropped; a later
// Schedule for the same key is the only retry.
type Queue struct {
	gen Generator
	dir string

	mu         sync.Mutex
	pending    []Job
	pendingSet map[string]bool
	inFlight   map[string]bool

	lmu       sync.RWMutex
	listeners map[string]chan Event
}

// NewQueue builds a queue writing thumbnails into dir.
func NewQueue(dir string, gen Generator) *Queue {
	return &Queue{
		gen:        gen,
		dir:        dir,
		pendingSet: make(map[string]bool),
		inFlight:   make(map[string]bool),
		listeners:  make(map[string]chan Event),
	}
}

func jobKey(videoID, sourcePath string) string {
	return videoID + "||" + sourcePath
}

// Schedule enqueues a generation and returns immediately.
func (q *Queue) Schedule(videoID, sourcePath string) {
	if videoID == "" || sourcePath == "" {
		return
	}
	key := jobKey(videoID, sourcePath)
	q.mu.Lock()
	if q.pendingSet[key] || q.inFlight[key] {
		q.mu.Unlock()
		return
	}
	q.pendingSet[key] = true
	q.pending = append(q.pending, Job{VideoID: videoID, SourcePath: sourcePath, EnqueuedAt: time.Now()})
	q.mu.Unlock()
	q.dispatch()
}

// Status reports current queue depth.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{Queued: len(q.pending), InProgress: len(q.inFlight)}
}

// ThumbnailPath is where the thumbnail for videoID lives (or will live).
func (q *Queue) ThumbnailPath(videoID string) string {
	return filepath.Join(q.dir, slug(videoID)+".jpg")
}

// ThumbnailURL is the serving path broadcast to listeners.
func (q *Queue) ThumbnailURL(videoID string) string {
	return "/thumbnails/" + slug(videoID) + ".jpg"
}

// Subscribe registers a listener for thumbnail-ready events. The returned id
// is the handle for Unsubscribe.
func (q *Queue) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, 16)
	q.lmu.Lock()
	q.listeners[id] = ch
	q.lmu.Unlock()
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (q *Queue) Unsubscribe(id string) {
	q.lmu.Lock()
	ch, ok := q.listeners[id]
	delete(q.listeners, id)
	q.lmu.Unlock()
	if ok {
		close(ch)
	}
}

// dispatch moves jobs from pending to in-flight until the concurrency cap is
// reached. It runs after every enqueue and every completion, so the queue
// drains without an external poller.
func (q *Queue) dispatch() {
	q.mu.Lock()
	var started []Job
	for len(q.inFlight) < maxConcurrent && len(q.pending) > 0 {
		job := q.pending[0]
		q.pending = q.pending[1:]
		key := jobKey(job.VideoID, job.SourcePath)
		delete(q.pendingSet, key)
		q.inFlight[key] = true
		started = append(started, job)
	}
	q.mu.Unlock()
	for _, job := range started {
		go q.run(job)
	}
}

func (q *Queue) run(job Job) {
	key := jobKey(job.VideoID, job.SourcePath)
	dest := q.ThumbnailPath(job.VideoID)
	err := q.gen.Generate(context.Background(), job.SourcePath, dest)

	q.mu.Lock()
	delete(q.inFlight, key)
	q.mu.Unlock()

	if err != nil {
		// best effort, no automatic retry: a fresh Schedule call retries
		metrics.ThumbnailFailures.Inc()
		log.Printf("[thumbs] generation failed for %s: %v", job.VideoID, err)
	} else {
		metrics.ThumbnailsGenerated.Inc()
		q.broadcast(Event{VideoID: job.VideoID, ThumbnailURL: q.ThumbnailURL(job.VideoID)})
	}
	q.dispatch()
}

// broadcast delivers to every live listener without blocking on slow ones.
func (q *Queue) broadcast(ev Event) {
	q.lmu.RLock()
	defer q.lmu.RUnlock()
	for _, ch := range q.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

var slugUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// slug makes a filesystem-safe name out of a video id.
func slug(s string) string {
	s = unidecode.Unidecode(s)
	s = slugUnsafe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
