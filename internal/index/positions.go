package index

import (
	"bufio"
	"os"
	"sort"

	"github.com/mithril-search/mithril/pkg/fileutil"
	"github.com/mithril-search/mithril/pkg/vbyte"
)

// PosDictEntry is one positions.dict row: where a term's merged position
// records start in positions.data and how many there are, per spec §4.5.
type PosDictEntry struct {
	Term           string
	DataOffset     uint64
	DocCount       uint32
	TotalPositions uint32
}

// WritePositionsDict writes entries (ascending term order) to path.
func WritePositionsDict(path string, entries []PosDictEntry) error {
	if err := fileutil.EnsureDir(dirOf(path)); err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	f, err := os.Create(path)
	if err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<20)

	if err := writeU32(w, uint32(len(entries))); err != nil {
		return wrapWrite(err)
	}
	for _, e := range entries {
		if err := writeU32(w, uint32(len(e.Term))); err != nil {
			return wrapWrite(err)
		}
		if _, err := w.WriteString(e.Term); err != nil {
			return wrapWrite(err)
		}
		if err := writeU64(w, e.DataOffset); err != nil {
			return wrapWrite(err)
		}
		if err := writeU32(w, e.DocCount); err != nil {
			return wrapWrite(err)
		}
		if err := writeU32(w, e.TotalPositions); err != nil {
			return wrapWrite(err)
		}
	}
	return w.Flush()
}

// PositionIndex is the read-only positional index: a loaded positions.dict
// plus a memory-resident copy of positions.data, read lazily per (term,
// doc) via a linear scan within the term's doc-entry list, per spec §4.6.
type PositionIndex struct {
	terms   []string
	offsets []uint64
	counts  []uint32
	data    []byte
}

// LoadPositionIndex reads both sidecar files into memory.
func LoadPositionIndex(dictPath, dataPath string) (*PositionIndex, error) {
	dictBytes, err := os.ReadFile(dictPath)
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}

	c := &byteCursor{buf: dictBytes}
	count, err := c.u32()
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}
	pi := &PositionIndex{
		terms:   make([]string, count),
		offsets: make([]uint64, count),
		counts:  make([]uint32, count),
		data:    data,
	}
	for i := uint32(0); i < count; i++ {
		termLen, err := c.u32()
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		term, err := c.bytes(int(termLen))
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		offset, err := c.u64()
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		docCount, err := c.u32()
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		if _, err := c.u32(); err != nil { // totalPositions, unused for lookup
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		pi.terms[i] = string(term)
		pi.offsets[i] = offset
		pi.counts[i] = docCount
	}
	return pi, nil
}

// Positions returns the positional entry for (term, docID), or ok=false if
// the term has no retained positions for that document (spec §3 invariant
// 5: positional entries exist only where the builder chose to retain
// them — a miss here is not an error).
func (pi *PositionIndex) Positions(term string, docID uint32) (PositionEntry, bool) {
	ti := sort.SearchStrings(pi.terms, term)
	if ti >= len(pi.terms) || pi.terms[ti] != term {
		return PositionEntry{}, false
	}
	c := &byteCursor{buf: pi.data, pos: int(pi.offsets[ti])}
	for i := uint32(0); i < pi.counts[ti]; i++ {
		id, err := c.u32()
		if err != nil {
			return PositionEntry{}, false
		}
		flagBytes, err := c.bytes(1)
		if err != nil {
			return PositionEntry{}, false
		}
		flag := flagBytes[0]
		posCount, err := c.u32()
		if err != nil {
			return PositionEntry{}, false
		}
		positions := make([]uint16, posCount)
		var prev uint32
		for j := uint32(0); j < posCount; j++ {
			v, n, derr := vbyte.Decode(pi.data[c.pos:])
			if derr != nil {
				return PositionEntry{}, false
			}
			c.pos += n
			if j == 0 {
				prev = v
			} else {
				prev += v
			}
			positions[j] = uint16(prev)
		}
		if id == docID {
			return PositionEntry{DocID: id, FieldFlags: flag, Positions: positions}, true
		}
		if id > docID {
			return PositionEntry{}, false
		}
	}
	return PositionEntry{}, false
}
