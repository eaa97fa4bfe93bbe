// Package index builds and serves the inverted index described in spec
// §4.5–§4.6: in-memory posting accumulation with block flushing, an
// external k-way merge into a final VByte-delta posting file with skip
// (sync) points, a sorted term dictionary, a document map, and a separate
// positional index.
//
// Open Question resolution (spec §9): the legacy TermReader path exists in
// two forms, raw Posting arrays and a VByte pair stream; this package takes
// the VByte form as canonical for final_index.data and never emits raw
// postings outside of staging blocks. Field flags are stored and read as
// u8, zero-extended where callers want a wider type.
package index

// SyncInterval is how many postings (or position entries) separate two
// consecutive skip-list sync points, per spec §3.
const SyncInterval = 1 << 20 // 1,048,576

// Posting is one (doc, frequency) pair for a term, per spec §3.
type Posting struct {
	DocID uint32
	Freq  uint32
}

// SyncPoint is one skip-list entry: the doc id at PostingIndex and the
// index into the posting (or position-entry) list it corresponds to.
type SyncPoint struct {
	DocID        uint32
	PostingIndex uint32
}

// Field flag bits, per spec §3/§4.6 decorator prefixes.
const (
	FieldBody  uint8 = 1 << 0
	FieldTitle uint8 = 1 << 1
	FieldURL   uint8 = 1 << 2
	FieldDesc  uint8 = 1 << 3
)

// PositionEntry is one (term, doc) positional record: the field(s) the term
// occurred in and its ascending positions within the document's token
// stream, per spec §3.
type PositionEntry struct {
	DocID      uint32
	FieldFlags uint8
	Positions  []uint16
}
