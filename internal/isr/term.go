package isr

import "github.com/mithril-search/mithril/internal/index"

// TermISR walks the decoded posting list for one term, per spec §4.6.
// Positions are loaded lazily per (term, doc) from the positional index.
type TermISR struct {
	term  string
	list  *index.PostingList
	idx   int
	posix *index.PositionIndex
}

// NewTermISR builds a TermISR over term's posting list, read from idx. A
// term absent from the dictionary yields an immediately-exhausted stream,
// per spec §4.11.
func NewTermISR(idx *index.Reader, term string) *TermISR {
	list, ok := idx.PostingList(term)
	if !ok {
		list = &index.PostingList{}
	}
	return &TermISR{term: term, list: list, idx: 0, posix: idx.Positions()}
}

func (t *TermISR) HasNext() bool { return t.idx < len(t.list.DocIDs) }

func (t *TermISR) NextDoc() {
	if t.idx < len(t.list.DocIDs) {
		t.idx++
	}
}

func (t *TermISR) CurrentDoc() uint32 { return t.list.DocIDs[t.idx] }

func (t *TermISR) Seek(target uint32) {
	t.idx = t.list.SeekIndex(target)
}

// CurrentFrequency implements FrequencyCarrier.
func (t *TermISR) CurrentFrequency() uint32 {
	return t.list.Freqs[t.idx]
}

// DocFrequency implements DocFrequency, used by AndISR to order children
// rarest-first.
func (t *TermISR) DocFrequency() int { return len(t.list.DocIDs) }

// HasPositions implements PositionCarrier: true iff the positional index
// retained an entry for (term, current doc).
func (t *TermISR) HasPositions() bool {
	if t.posix == nil || !t.HasNext() {
		return false
	}
	_, ok := t.posix.Positions(t.term, t.CurrentDoc())
	return ok
}

// CurrentPositions implements PositionCarrier.
func (t *TermISR) CurrentPositions() []uint16 {
	entry, ok := t.posix.Positions(t.term, t.CurrentDoc())
	if !ok {
		return nil
	}
	return entry.Positions
}

// CurrentFieldFlags implements PositionCarrier.
func (t *TermISR) CurrentFieldFlags() uint8 {
	entry, ok := t.posix.Positions(t.term, t.CurrentDoc())
	if !ok {
		return 0
	}
	return entry.FieldFlags
}
