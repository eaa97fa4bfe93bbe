package shard

import (
	"github.com/mithril-search/mithril/internal/index"
	"github.com/mithril-search/mithril/internal/isr"
)

// seekableTerm wraps a TermISR for point lookups during scoring: "does
// this term occur in doc d, and if so with what frequency/positions".
type seekableTerm struct {
	t       *isr.TermISR
	atDocID bool
}

func newSeekableTerm(reader *index.Reader, term string) *seekableTerm {
	return &seekableTerm{t: isr.NewTermISR(reader, term)}
}

func (s *seekableTerm) seek(docID uint32) bool {
	s.t.Seek(docID)
	s.atDocID = s.t.HasNext() && s.t.CurrentDoc() == docID
	return s.atDocID
}

func (s *seekableTerm) frequency() uint32 {
	if !s.atDocID {
		return 0
	}
	return s.t.CurrentFrequency()
}

func (s *seekableTerm) docFrequency() int { return s.t.DocFrequency() }

func (s *seekableTerm) hasPositions() bool {
	return s.atDocID && s.t.HasPositions()
}

func (s *seekableTerm) positions() []uint16 {
	if !s.atDocID {
		return nil
	}
	return s.t.CurrentPositions()
}
