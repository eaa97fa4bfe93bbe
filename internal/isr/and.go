package isr

import "sort"

// AndISR intersects K children, ordering them rarest-first (ascending
// document frequency) and converging on a common current doc, per spec
// §4.6.
type AndISR struct {
	children []ISR
	done     bool
}

// NewAndISR builds the intersection of children. Children implementing
// DocFrequency are sorted ascending so the rarest leads.
func NewAndISR(children []ISR) *AndISR {
	ordered := make([]ISR, len(children))
	copy(ordered, children)
	sort.SliceStable(ordered, func(i, j int) bool {
		return docFreq(ordered[i]) < docFreq(ordered[j])
	})
	a := &AndISR{children: ordered}
	a.converge()
	return a
}

func docFreq(isr ISR) int {
	if df, ok := isr.(DocFrequency); ok {
		return df.DocFrequency()
	}
	return int(^uint(0) >> 1) // unknown frequency sorts last
}

func (a *AndISR) HasNext() bool { return !a.done && len(a.children) > 0 && a.children[0].HasNext() }

func (a *AndISR) CurrentDoc() uint32 { return a.children[0].CurrentDoc() }

func (a *AndISR) NextDoc() {
	if !a.HasNext() {
		return
	}
	a.children[0].NextDoc()
	a.converge()
}

func (a *AndISR) Seek(target uint32) {
	if len(a.children) == 0 {
		a.done = true
		return
	}
	a.children[0].Seek(target)
	a.converge()
}

// converge repeatedly seeks every non-leader child to the leader's current
// doc; if a child lands past the leader, the leader is re-seeked to that
// (now-larger) doc and the process repeats, per spec §4.6.
func (a *AndISR) converge() {
	if len(a.children) == 0 {
		a.done = true
		return
	}
	for {
		if !a.children[0].HasNext() {
			a.done = true
			return
		}
		candidate := a.children[0].CurrentDoc()
		restart := false
		for _, c := range a.children[1:] {
			c.Seek(candidate)
			if !c.HasNext() {
				a.done = true
				return
			}
			if c.CurrentDoc() != candidate {
				if c.CurrentDoc() > candidate {
					candidate = c.CurrentDoc()
				}
				restart = true
			}
		}
		if !restart {
			return
		}
		a.children[0].Seek(candidate)
	}
}
