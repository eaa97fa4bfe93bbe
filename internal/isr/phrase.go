package isr

// DefaultMaxSpan is the maximum distance (last position - first position)
// allowed between a fuzzy phrase's terms, per spec §4.6.
const DefaultMaxSpan = 5

// PhraseISR walks the AND of K terms and additionally requires their
// positions to satisfy either a strict (QuoteISR) or fuzzy (PhraseISR)
// ordering constraint, per spec §4.6/§8.
type PhraseISR struct {
	and    *AndISR
	terms  []PositionCarrier
	strict bool
	maxSpan int
}

// NewPhraseISR builds a phrase stream over terms (already-constructed
// TermISR-like readers satisfying both ISR and PositionCarrier), requiring
// an ascending position sequence p_0 < p_1 < ... < p_{K-1} with
// p_{K-1}-p_0 <= maxSpan (or, when strict, p_i = p_{i-1}+1).
func NewPhraseISR(terms []PositionCarrier, strict bool, maxSpan int) *PhraseISR {
	if maxSpan <= 0 {
		maxSpan = DefaultMaxSpan
	}
	children := make([]ISR, len(terms))
	for i, t := range terms {
		children[i] = t.(ISR)
	}
	p := &PhraseISR{and: NewAndISR(children), terms: terms, strict: strict, maxSpan: maxSpan}
	p.advanceToMatch()
	return p
}

func (p *PhraseISR) HasNext() bool { return p.and.HasNext() }

func (p *PhraseISR) CurrentDoc() uint32 { return p.and.CurrentDoc() }

func (p *PhraseISR) NextDoc() {
	if !p.and.HasNext() {
		return
	}
	p.and.NextDoc()
	p.advanceToMatch()
}

func (p *PhraseISR) Seek(target uint32) {
	p.and.Seek(target)
	p.advanceToMatch()
}

func (p *PhraseISR) advanceToMatch() {
	for p.and.HasNext() {
		if p.matchesPositions() {
			return
		}
		p.and.NextDoc()
	}
}

// matchesPositions checks the AND's current doc against each term's
// positions. AndISR.converge already set every child's cursor to the
// common current doc, so CurrentPositions on each term is valid.
func (p *PhraseISR) matchesPositions() bool {
	lists := make([][]uint16, len(p.terms))
	for i, t := range p.terms {
		lists[i] = t.CurrentPositions()
		if len(lists[i]) == 0 {
			return false
		}
	}
	return hasOrderedSequence(lists, p.strict, p.maxSpan)
}

// hasOrderedSequence reports whether there exist positions p_0 in
// lists[0], p_1 in lists[1], ..., p_{K-1} in lists[K-1] with
// p_0 < p_1 < ... < p_{K-1} and (strict: p_i = p_{i-1}+1, else
// p_{K-1}-p_0 <= maxSpan). It searches depth-first, trying every starting
// position in lists[0] (position lists are typically short).
func hasOrderedSequence(lists [][]uint16, strict bool, maxSpan int) bool {
	for _, start := range lists[0] {
		if tryChain(lists, 1, start, start, strict, maxSpan) {
			return true
		}
	}
	return false
}

func tryChain(lists [][]uint16, i int, first, prev uint16, strict bool, maxSpan int) bool {
	if i == len(lists) {
		return true
	}
	for _, p := range lists[i] {
		if strict {
			if p != prev+1 {
				continue
			}
		} else {
			if p <= prev {
				continue
			}
			if int(p)-int(first) > maxSpan {
				continue
			}
		}
		if tryChain(lists, i+1, first, p, strict, maxSpan) {
			return true
		}
	}
	return false
}
