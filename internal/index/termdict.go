package index

import (
	"bufio"
	"os"
	"sort"

	"github.com/mithril-search/mithril/pkg/fileutil"
)

// TermDictMagic identifies term_dictionary.bin, per spec §4.5/§6 ("MITH").
const TermDictMagic uint32 = 0x4D495448

// TermDictVersion is the on-disk format version.
const TermDictVersion uint32 = 1

// WriteTermDictionary writes entries (already in ascending term order) to
// path in the layout of spec §4.5: magic, version, term_count, then
// {len, bytes, offset u64, postings_count} per entry.
func WriteTermDictionary(path string, entries []TermDictEntry) error {
	if err := fileutil.EnsureDir(dirOf(path)); err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	f, err := os.Create(path)
	if err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<20)

	if err := writeU32(w, TermDictMagic); err != nil {
		return wrapWrite(err)
	}
	if err := writeU32(w, TermDictVersion); err != nil {
		return wrapWrite(err)
	}
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
		if err := writeU64(w, e.Offset); err != nil {
			return wrapWrite(err)
		}
		if err := writeU32(w, e.PostingCount); err != nil {
			return wrapWrite(err)
		}
	}
	return w.Flush()
}

// TermDictionary is the sorted term -> {offset, postings_count} table
// loaded fully into memory, per spec §4.5: "loaded into memory; binary
// search lookup."
type TermDictionary struct {
	terms   []string
	offsets []uint64
	counts  []uint32
}

// LoadTermDictionary reads and validates term_dictionary.bin from path.
func LoadTermDictionary(path string) (*TermDictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	r := &byteCursor{buf: data}

	magic, err := r.u32()
	if err != nil || magic != TermDictMagic {
		return nil, &Error{Message: "bad magic", Retryable: false, Cause: ErrCauseCorruptData}
	}
	if _, err := r.u32(); err != nil { // version, unchecked beyond presence
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}
	count, err := r.u32()
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}

	td := &TermDictionary{
		terms:   make([]string, count),
		offsets: make([]uint64, count),
		counts:  make([]uint32, count),
	}
	for i := uint32(0); i < count; i++ {
		termLen, err := r.u32()
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		term, err := r.bytes(int(termLen))
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		offset, err := r.u64()
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		postingCount, err := r.u32()
		if err != nil {
			return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
		}
		td.terms[i] = string(term)
		td.offsets[i] = offset
		td.counts[i] = postingCount
	}
	return td, nil
}

// Lookup binary-searches for term, returning its final_index.data offset
// and posting count.
func (td *TermDictionary) Lookup(term string) (offset uint64, postingCount uint32, ok bool) {
	i := sort.SearchStrings(td.terms, term)
	if i < len(td.terms) && td.terms[i] == term {
		return td.offsets[i], td.counts[i], true
	}
	return 0, 0, false
}

// Len reports the number of distinct terms.
func (td *TermDictionary) Len() int { return len(td.terms) }

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
