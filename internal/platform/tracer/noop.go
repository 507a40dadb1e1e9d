package tracer

import (
	"context"
	"sync"
)

// NoopTracer discards every span.
type NoopTracer struct{}

func NewNoop() *NoopTracer {
	return &NoopTracer{}
}

func (t *NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(_ error)                       {}
func (noopSpan) SetAttributes(_ ...Attribute)      {}
func (noopSpan) AddEvent(_ string, _ ...Attribute) {}

// Recorder keeps finished spans in memory so tests can assert on them.
type Recorder struct {
	mu    sync.Mutex
	spans []*RecordedSpan
}

// RecordedSpan is one span as seen by a Recorder.
type RecordedSpan struct {
	Name   string
	Attrs  map[string]any
	Events []string
	Err    error
	Ended  bool

	rec *Recorder
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	span := &RecordedSpan{Name: name, Attrs: make(map[string]any), rec: r}
	span.SetAttributes(attrs...)
	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()
	return ctx, span
}

// Find returns the first span called name, or nil.
func (r *Recorder) Find(name string) *RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spans {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Len returns how many spans were started.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}

func (s *RecordedSpan) End(err error) {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	s.Err = err
	s.Ended = true
}

func (s *RecordedSpan) SetAttributes(attrs ...Attribute) {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	for _, a := range attrs {
		s.Attrs[a.Key] = a.Value
	}
}

func (s *RecordedSpan) AddEvent(name string, _ ...Attribute) {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	s.Events = append(s.Events, name)
}

var (
	_ Tracer = (*NoopTracer)(nil)
	_ Tracer = (*Recorder)(nil)
	_ Span   = noopSpan{}
)
