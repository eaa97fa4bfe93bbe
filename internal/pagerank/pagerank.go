// Package pagerank reads the offline PageRank vector produced by the
// (out-of-scope) PageRank computation and exposes it by document id, per
// spec §6's `pagerank.out` format: `f64[N]` big-endian.
package pagerank

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/mithril-search/mithril/pkg/failure"
)

// ErrorCause classifies why a Reader could not be constructed or queried.
type ErrorCause int

const (
	ErrCauseOpenFailure ErrorCause = iota
	ErrCauseCorruptData
)

// Error is pagerank's boundary error kind, per spec §7's I/O error
// taxonomy: a missing or malformed pagerank.out is a construction failure,
// fatal at startup rather than per-query.
type Error struct {
	Message string
	Cause   ErrorCause
}

func (e *Error) Error() string { return "pagerank: " + e.Message }

// Severity reports Fatal: pagerank.out absence is always a startup/build
// failure, never a per-request condition.
func (e *Error) Severity() failure.Severity { return failure.SeverityFatal }

var _ failure.ClassifiedError = (*Error)(nil)

// Reader holds the PageRank vector fully resident in memory, standing in
// for the spec's memory-mapped, read-only `pagerank.out` region: there is
// no mmap library in the retrieved dependency pack, and an immutable
// in-memory buffer satisfies the same "read-only, concurrently readable"
// contract described in spec §5.
type Reader struct {
	scores []float64
}

// Open loads a pagerank.out file in full.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{fmt.Sprintf("open %s: %v", path, err), ErrCauseOpenFailure}
	}
	if len(data)%8 != 0 {
		return nil, &Error{fmt.Sprintf("%s: length %d is not a multiple of 8", path, len(data)), ErrCauseCorruptData}
	}
	n := len(data) / 8
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.BigEndian.Uint64(data[i*8 : i*8+8])
		scores[i] = math.Float64frombits(bits)
	}
	return &Reader{scores: scores}, nil
}

// Len reports the number of documents covered.
func (r *Reader) Len() int { return len(r.scores) }

// Score returns docID's PageRank score, or 0 if docID is out of range (a
// missing score is not an error, matching the ISR "missing yields empty,
// not error" convention of spec §4.11).
func (r *Reader) Score(docID uint32) float64 {
	if int(docID) >= len(r.scores) {
		return 0
	}
	return r.scores[docID]
}

// Write serializes scores to path in the pagerank.out format; used by
// tests and by any future offline PageRank producer.
func Write(path string, scores []float64) error {
	buf := make([]byte, len(scores)*8)
	for i, s := range scores {
		binary.BigEndian.PutUint64(buf[i*8:i*8+8], math.Float64bits(s))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return &Error{fmt.Sprintf("write %s: %v", path, err), ErrCauseOpenFailure}
	}
	return nil
}
