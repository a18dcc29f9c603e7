package testsupport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cardsync/internal/registry"
)

// RecordingWriter is an in-memory store.Writer.
type RecordingWriter struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	// Err, when set, fails every Put.
	Err error
}

// NewRecordingWriter constructs an empty writer.
func NewRecordingWriter() *RecordingWriter {
	return &RecordingWriter{objects: make(map[string][]byte)}
}

// Put implements store.Writer.
func (w *RecordingWriter) Put(_ context.Context, key string, data []byte, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.puts++
	if w.Err != nil {
		return w.Err
	}
	w.objects[key] = append([]byte(nil), data...)
	return nil
}

// Puts returns the number of Put calls.
func (w *RecordingWriter) Puts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.puts
}

// Has reports whether key was written.
func (w *RecordingWriter) Has(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.objects[key]
	return ok
}

// RecordingRegistrar collects upserted records.
type RecordingRegistrar struct {
	mu      sync.Mutex
	records []registry.Record
	// Err, when set, fails every Upsert after recording the attempt.
	Err error
}

// Upsert implements registry.Registrar.
func (r *RecordingRegistrar) Upsert(_ context.Context, rec registry.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.Err
}

// Records returns a copy of the recorded upserts.
func (r *RecordingRegistrar) Records() []registry.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]registry.Record(nil), r.records...)
}

// ImageServer serves a fixed PNG for any path except those containing
// "missing", which return 404. It tracks peak concurrent requests.
type ImageServer struct {
	*httptest.Server
	Delay time.Duration

	body     []byte
	inFlight atomic.Int32
	peak     atomic.Int32
	requests atomic.Int32
}

// NewImageServer starts an ImageServer and registers cleanup.
func NewImageServer(t testing.TB, body []byte) *ImageServer {
	t.Helper()

	s := &ImageServer{body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *ImageServer) serve(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if strings.Contains(r.URL.Path, "missing") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(s.body)
}

// Peak returns the highest number of concurrent requests observed.
func (s *ImageServer) Peak() int {
	return int(s.peak.Load())
}

// Requests returns the total number of requests served.
func (s *ImageServer) Requests() int {
	return int(s.requests.Load())
}
