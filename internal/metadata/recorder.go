package metadata

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Content hashes
- Crawl depth
- Index build block/merge counters
- Query shard latency and result counts

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Hashes
- Status codes
- Durations
- Identifiers (page ID, crawl ID, shard ID)
*/

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// MetadataSink receives the events a Recorder emits. The default sink logs
// through the standard library logger; tests substitute an in-memory one.
type MetadataSink interface {
	Error(rec ErrorRecord)
	Event(name string, attrs []Attribute)
	Artifact(rec ArtifactRecord)
}

// LogSink writes every event as one structured line via log.Logger.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink wraps logger (or the standard logger if nil).
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Error(rec ErrorRecord) {
	s.logger.Printf("metadata.error package=%s action=%s cause=%d msg=%q attrs=%s",
		rec.packageName, rec.action, rec.cause, rec.errorString, formatAttrs(rec.attrs))
}

func (s *LogSink) Event(name string, attrs []Attribute) {
	s.logger.Printf("metadata.event name=%s attrs=%s", name, formatAttrs(attrs))
}

func (s *LogSink) Artifact(rec ArtifactRecord) {
	s.logger.Printf("metadata.artifact paths=%s", rec.paths)
}

func formatAttrs(attrs []Attribute) string {
	out := ""
	for i, a := range attrs {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s=%s", a.Key, a.Value)
	}
	return out
}

// Recorder is the single place every pipeline package goes through to
// report observability data. It never influences control flow: callers
// must make retry/abort decisions before calling into the Recorder, not
// based on anything the Recorder returns.
type Recorder struct {
	mu   sync.Mutex
	sink MetadataSink
}

// NewRecorder binds a Recorder to sink.
func NewRecorder(sink MetadataSink) *Recorder {
	return &Recorder{sink: sink}
}

// RecordError reports a classified failure for observability only.
func (r *Recorder) RecordError(packageName, action string, cause ErrorCause, err error, attrs ...Attribute) {
	rec := ErrorRecord{
		packageName: packageName,
		action:      action,
		cause:       cause,
		errorString: err.Error(),
		observedAt:  time.Now(),
		attrs:       attrs,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink.Error(rec)
}

// RecordEvent reports a named milestone (fetch complete, block flushed,
// shard answered) with structured attributes.
func (r *Recorder) RecordEvent(name string, attrs ...Attribute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink.Event(name, attrs)
}

// RecordArtifact reports a terminal written artifact path (index segment,
// document store block, etc).
func (r *Recorder) RecordArtifact(paths string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink.Artifact(ArtifactRecord{paths: paths})
}
