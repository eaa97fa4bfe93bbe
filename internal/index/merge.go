package index

import (
	"bufio"
	"container/heap"
	"os"
	"sort"

	"github.com/mithril-search/mithril/pkg/vbyte"
)

// blockCursor walks one block's terms in ascending order, for the k-way
// merge's min-heap.
type blockCursor struct {
	blockID int
	terms   []blockTerm
	idx     int
}

func (c *blockCursor) term() string { return c.terms[c.idx].Term }
func (c *blockCursor) advance() bool {
	c.idx++
	return c.idx < len(c.terms)
}

// mergeHeap orders cursors by (current_term, block_id), per spec §4.5.
type mergeHeap []*blockCursor

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if h[i].term() != h[j].term() {
		return h[i].term() < h[j].term()
	}
	return h[i].blockID < h[j].blockID
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(*blockCursor)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TermDictEntry is one dictionary row emitted during merge, for WriteTermDictionary.
type TermDictEntry struct {
	Term         string
	Offset       uint64
	PostingCount uint32
}

// MergeResult carries the term dictionary rows and position dictionary
// rows produced by MergeBlocks, ready for the sidecar files.
type MergeResult struct {
	Terms     []TermDictEntry
	PosTerms  []PosDictEntry
	TermCount uint32
}

// MergeBlocks performs the external k-way merge of spec §4.5: for each
// term (in ascending order, across all blocks), it gathers every posting
// and position entry, re-sorts by doc id, recomputes sync points, and
// writes the final VByte-delta-encoded record to indexPath. Positions are
// written to posDataPath; the returned MergeResult.PosTerms/Terms are the
// sidecar dictionary rows the caller writes via WriteTermDictionary and
// WritePositionsDict. blockPaths are deleted once fully consumed, matching
// "after merge: blocks are deleted."
func MergeBlocks(blockPaths []string, indexPath, posDataPath string) (MergeResult, error) {
	cursors := make([]*blockCursor, 0, len(blockPaths))
	for i, p := range blockPaths {
		terms, err := ReadBlock(p)
		if err != nil {
			return MergeResult{}, err
		}
		if len(terms) == 0 {
			continue
		}
		cursors = append(cursors, &blockCursor{blockID: i, terms: terms, idx: 0})
	}

	idxFile, err := os.Create(indexPath)
	if err != nil {
		return MergeResult{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	defer idxFile.Close()
	idxW := bufio.NewWriterSize(idxFile, 1<<20)

	posDataFile, err := os.Create(posDataPath)
	if err != nil {
		return MergeResult{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	defer posDataFile.Close()
	posDataW := bufio.NewWriterSize(posDataFile, 1<<20)

	// Placeholder term_count header, patched once the final count is known.
	if err := writeU32(idxW, 0); err != nil {
		return MergeResult{}, wrapWrite(err)
	}
	var offset uint64 = 4
	var posOffset uint64

	h := mergeHeap(cursors)
	heap.Init(&h)

	var termDict []TermDictEntry
	var posDict []PosDictEntry

	for h.Len() > 0 {
		term := h[0].term()

		var postings []Posting
		var positions []PositionEntry
		var group []*blockCursor
		for h.Len() > 0 && h[0].term() == term {
			c := heap.Pop(&h).(*blockCursor)
			postings = append(postings, c.terms[c.idx].Postings...)
			positions = append(positions, c.terms[c.idx].Positions...)
			group = append(group, c)
		}
		sort.Slice(postings, func(i, j int) bool { return postings[i].DocID < postings[j].DocID })
		sort.Slice(positions, func(i, j int) bool { return positions[i].DocID < positions[j].DocID })

		n, err := writeFinalTerm(idxW, term, postings)
		if err != nil {
			return MergeResult{}, err
		}
		termDict = append(termDict, TermDictEntry{Term: term, Offset: offset, PostingCount: uint32(len(postings))})
		offset += uint64(n)

		if len(positions) > 0 {
			written, err := writePositionsRecord(posDataW, positions)
			if err != nil {
				return MergeResult{}, err
			}
			posDict = append(posDict, PosDictEntry{
				Term:           term,
				DataOffset:     posOffset,
				DocCount:       uint32(len(positions)),
				TotalPositions: totalPositions(positions),
			})
			posOffset += uint64(written)
		}

		for _, c := range group {
			if c.advance() {
				heap.Push(&h, c)
			}
		}
	}

	if err := idxW.Flush(); err != nil {
		return MergeResult{}, wrapWrite(err)
	}
	if err := posDataW.Flush(); err != nil {
		return MergeResult{}, wrapWrite(err)
	}

	// Patch the term_count header now that it is known.
	if _, err := idxFile.Seek(0, 0); err != nil {
		return MergeResult{}, wrapWrite(err)
	}
	var hdr [4]byte
	putU32(hdr[:], uint32(len(termDict)))
	if _, err := idxFile.WriteAt(hdr[:], 0); err != nil {
		return MergeResult{}, wrapWrite(err)
	}

	for _, p := range blockPaths {
		_ = os.Remove(p)
	}

	return MergeResult{Terms: termDict, PosTerms: posDict, TermCount: uint32(len(termDict))}, nil
}

func totalPositions(entries []PositionEntry) uint32 {
	var n uint32
	for _, e := range entries {
		n += uint32(len(e.Positions))
	}
	return n
}

// writeFinalTerm writes one term's record in the final_index.data layout of
// spec §4.5 (postings only; positions live in the sidecar files) and
// returns the number of bytes written.
func writeFinalTerm(w *bufio.Writer, term string, postings []Posting) (int, error) {
	n := 0
	write := func(p []byte) error {
		k, err := w.Write(p)
		n += k
		return err
	}
	var hdr [4]byte
	putU32(hdr[:], uint32(len(term)))
	if err := write(hdr[:]); err != nil {
		return 0, wrapWrite(err)
	}
	if err := write([]byte(term)); err != nil {
		return 0, wrapWrite(err)
	}
	putU32(hdr[:], uint32(len(postings)))
	if err := write(hdr[:]); err != nil {
		return 0, wrapWrite(err)
	}

	docIDs := postingDocIDs(postings)
	syncs := buildSyncPoints(docIDs)
	putU32(hdr[:], uint32(len(syncs)))
	if err := write(hdr[:]); err != nil {
		return 0, wrapWrite(err)
	}
	for _, s := range syncs {
		var b [8]byte
		putU32(b[0:4], s.DocID)
		putU32(b[4:8], s.PostingIndex)
		if err := write(b[:]); err != nil {
			return 0, wrapWrite(err)
		}
	}

	buf := make([]byte, 0, len(postings)*3)
	var prev uint32
	for i, p := range postings {
		if i == 0 {
			buf = vbyte.Encode(buf, p.DocID)
		} else {
			buf = vbyte.Encode(buf, p.DocID-prev)
		}
		prev = p.DocID
		buf = vbyte.Encode(buf, p.Freq)
	}
	if err := write(buf); err != nil {
		return 0, wrapWrite(err)
	}
	return n, nil
}

// writePositionsRecord appends one term's merged PositionEntry list to the
// positions.data stream, per spec §4.5's "per doc record" format.
func writePositionsRecord(w *bufio.Writer, entries []PositionEntry) (int, error) {
	n := 0
	for _, e := range entries {
		var b [4]byte
		putU32(b[:], e.DocID)
		k, err := w.Write(b[:])
		n += k
		if err != nil {
			return n, wrapWrite(err)
		}
		if err := w.WriteByte(e.FieldFlags); err != nil {
			return n, wrapWrite(err)
		}
		n++
		var cb [4]byte
		putU32(cb[:], uint32(len(e.Positions)))
		k, err = w.Write(cb[:])
		n += k
		if err != nil {
			return n, wrapWrite(err)
		}
		positions32 := make([]uint32, len(e.Positions))
		for i, p := range e.Positions {
			positions32[i] = uint32(p)
		}
		buf := vbyte.EncodeDeltas(nil, positions32)
		k, err = w.Write(buf)
		n += k
		if err != nil {
			return n, wrapWrite(err)
		}
	}
	return n, nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
