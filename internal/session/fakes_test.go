package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/copyflow-project/copyflow/internal/history"
	"github.com/copyflow-project/copyflow/internal/llm"
	"github.com/copyflow-project/copyflow/pkg/logging"
	"github.com/copyflow-project/copyflow/pkg/metrics"
)

// fakeTranslator delivers chunks; when gate is set it pauses before chunk
// gateAt and closes paused.
type fakeTranslator struct {
	chunks []string
	err    error
	gate   chan struct{}
	paused chan struct{}
	gateAt int

	mu   sync.Mutex
	reqs []llm.TranslateRequest
}

func (f *fakeTranslator) TranslateStream(ctx context.Context, req llm.TranslateRequest, onChunk func(string)) error {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	for i, c := range f.chunks {
		if f.gate != nil && i == f.gateAt {
			close(f.paused)
			<-f.gate
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		onChunk(c)
	}
	return f.err
}

type auditResponse struct {
	raw string
	err error
	// gate, when set, holds the response until closed regardless of ctx.
	gate chan struct{}
}

type fakeAuditor struct {
	mu        sync.Mutex
	responses []auditResponse
	calls     int
	started   chan int
	reqs      []llm.AuditRequest
}

func (f *fakeAuditor) Audit(ctx context.Context, req llm.AuditRequest) ([]byte, error) {
	f.mu.Lock()
	r := f.responses[f.calls]
	n := f.calls
	f.calls++
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- n
	}
	if r.gate != nil {
		<-r.gate
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.raw), nil
}

func testIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestSession(tr llm.Translator, au llm.Auditor) *Session {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	tick := 0
	var mu sync.Mutex
	hist := history.NewManager(
		history.WithIDFunc(testIDs("h")),
		history.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
	)
	log := logging.NewLogger(logging.LevelError)
	log.SetOutput(io.Discard)
	return New(Options{
		Translator: tr,
		Auditor:    au,
		History:    hist,
		Logger:     log,
		Metrics:    metrics.NewRegistry(),
		IDFunc:     testIDs("i"),
	})
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) kinds(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
