package isr

// NotISR produces every doc id in [0, maxDocID) that child does not
// produce, per spec §4.6.
type NotISR struct {
	child    ISR
	maxDocID uint32
	current  uint32
	ok       bool
}

// NewNotISR builds the complement of child over [0, maxDocID).
func NewNotISR(child ISR, maxDocID uint32) *NotISR {
	n := &NotISR{child: child, maxDocID: maxDocID, current: 0}
	n.child.Seek(0)
	n.advanceToMatch()
	return n
}

func (n *NotISR) HasNext() bool { return n.ok }

func (n *NotISR) CurrentDoc() uint32 { return n.current }

func (n *NotISR) NextDoc() {
	if !n.ok {
		return
	}
	n.current++
	n.advanceToMatch()
}

func (n *NotISR) Seek(target uint32) {
	if target > n.current || !n.ok {
		n.current = target
	}
	n.child.Seek(n.current)
	n.advanceToMatch()
}

// advanceToMatch moves current forward past every doc id the child does
// produce, stopping at the first id < maxDocID the child skips.
func (n *NotISR) advanceToMatch() {
	for {
		if n.current >= n.maxDocID {
			n.ok = false
			return
		}
		if !n.child.HasNext() {
			n.ok = true
			return
		}
		if n.child.CurrentDoc() > n.current {
			n.ok = true
			return
		}
		// child.CurrentDoc() == n.current: skip this doc and resync the child
		n.current++
		n.child.NextDoc()
	}
}
