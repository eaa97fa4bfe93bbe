package queryeval

import "github.com/mithril-search/mithril/internal/isr"

// fieldFilterISR restricts a *isr.TermISR to docs where the term's retained
// position entry carries the requested field flag, implementing
// field-qualified terms (e.g. "title:golang") on top of a single combined
// postings list rather than per-field postings lists.
type fieldFilterISR struct {
	term *isr.TermISR
	flag uint8
}

func newFieldFilterISR(term *isr.TermISR, flag uint8) *fieldFilterISR {
	f := &fieldFilterISR{term: term, flag: flag}
	f.advanceToMatch()
	return f
}

func (f *fieldFilterISR) matches() bool {
	return f.term.HasPositions() && f.term.CurrentFieldFlags()&f.flag != 0
}

func (f *fieldFilterISR) advanceToMatch() {
	for f.term.HasNext() && !f.matches() {
		f.term.NextDoc()
	}
}

func (f *fieldFilterISR) HasNext() bool    { return f.term.HasNext() }
func (f *fieldFilterISR) CurrentDoc() uint32 { return f.term.CurrentDoc() }

func (f *fieldFilterISR) NextDoc() {
	f.term.NextDoc()
	f.advanceToMatch()
}

func (f *fieldFilterISR) Seek(target uint32) {
	f.term.Seek(target)
	f.advanceToMatch()
}

func (f *fieldFilterISR) CurrentFrequency() uint32 { return f.term.CurrentFrequency() }
func (f *fieldFilterISR) DocFrequency() int        { return f.term.DocFrequency() }
func (f *fieldFilterISR) HasPositions() bool        { return f.term.HasPositions() }
func (f *fieldFilterISR) CurrentPositions() []uint16 { return f.term.CurrentPositions() }
func (f *fieldFilterISR) CurrentFieldFlags() uint8   { return f.term.CurrentFieldFlags() }

var _ isr.ISR = (*fieldFilterISR)(nil)
var _ isr.FrequencyCarrier = (*fieldFilterISR)(nil)
var _ isr.PositionCarrier = (*fieldFilterISR)(nil)
var _ isr.DocFrequency = (*fieldFilterISR)(nil)
