package index

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/mithril-search/mithril/pkg/vbyte"
)

// blockTerm is one term's postings + positions as staged to disk, per the
// block layout of spec §4.5.
type blockTerm struct {
	Term      string
	Postings  []Posting
	Positions []PositionEntry
}

// WriteBlock serializes dict's accumulated terms (in ascending order) to
// path using the staging block layout of spec §4.5: postings are written
// raw (not delta-encoded — that happens once, at merge time), positions
// are VByte-delta encoded per entry.
func WriteBlock(path string, dict *Dictionary) error {
	f, err := os.Create(path)
	if err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<20)

	terms := dict.Terms()
	if err := writeU32(w, uint32(len(terms))); err != nil {
		return wrapWrite(err)
	}
	for _, term := range terms {
		postings, positions := dict.Postings(term)
		sort.Slice(postings, func(i, j int) bool { return postings[i].DocID < postings[j].DocID })

		if err := writeTermBytes(w, term); err != nil {
			return wrapWrite(err)
		}
		if err := writeU32(w, uint32(len(postings))); err != nil {
			return wrapWrite(err)
		}
		syncs := buildSyncPoints(postingDocIDs(postings))
		if err := writeSyncPoints(w, syncs); err != nil {
			return wrapWrite(err)
		}
		for _, p := range postings {
			if err := writeU32(w, p.DocID); err != nil {
				return wrapWrite(err)
			}
			if err := writeU32(w, p.Freq); err != nil {
				return wrapWrite(err)
			}
		}

		if err := writeU32(w, uint32(len(positions))); err != nil {
			return wrapWrite(err)
		}
		posSyncs := buildSyncPoints(positionDocIDs(positions))
		if err := writeSyncPoints(w, posSyncs); err != nil {
			return wrapWrite(err)
		}
		if err := writePositionStream(w, positions); err != nil {
			return wrapWrite(err)
		}
	}
	if err := w.Flush(); err != nil {
		return wrapWrite(err)
	}
	return nil
}

// ReadBlock decodes a staged block back into its per-term postings and
// positions, in ascending term order.
func ReadBlock(path string) ([]blockTerm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<20)

	numTerms, err := readU32(r)
	if err != nil {
		return nil, wrapDecode(err)
	}
	out := make([]blockTerm, 0, numTerms)
	for i := uint32(0); i < numTerms; i++ {
		term, err := readTermBytes(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		postingsCount, err := readU32(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		if _, err := readSyncPoints(r); err != nil { // sync table not needed for a full scan
			return nil, wrapDecode(err)
		}
		postings := make([]Posting, postingsCount)
		for j := range postings {
			docID, err := readU32(r)
			if err != nil {
				return nil, wrapDecode(err)
			}
			freq, err := readU32(r)
			if err != nil {
				return nil, wrapDecode(err)
			}
			postings[j] = Posting{DocID: docID, Freq: freq}
		}

		positionsCount, err := readU32(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		if _, err := readSyncPoints(r); err != nil {
			return nil, wrapDecode(err)
		}
		positions, err := readPositionStream(r, positionsCount)
		if err != nil {
			return nil, wrapDecode(err)
		}

		out = append(out, blockTerm{Term: term, Postings: postings, Positions: positions})
	}
	return out, nil
}

func postingDocIDs(postings []Posting) []uint32 {
	ids := make([]uint32, len(postings))
	for i, p := range postings {
		ids[i] = p.DocID
	}
	return ids
}

func positionDocIDs(entries []PositionEntry) []uint32 {
	ids := make([]uint32, len(entries))
	for i, e := range entries {
		ids[i] = e.DocID
	}
	return ids
}

// buildSyncPoints emits one SyncPoint every SyncInterval elements of an
// ascending-docid sequence, per spec §3/§4.5.
func buildSyncPoints(docIDs []uint32) []SyncPoint {
	var syncs []SyncPoint
	for i := 0; i < len(docIDs); i += SyncInterval {
		syncs = append(syncs, SyncPoint{DocID: docIDs[i], PostingIndex: uint32(i)})
	}
	return syncs
}

func writePositionStream(w io.Writer, entries []PositionEntry) error {
	buf := make([]byte, 0, 64)
	for _, e := range entries {
		buf = buf[:0]
		buf = vbyte.Encode(buf, e.DocID)
		buf = append(buf, e.FieldFlags)
		buf = vbyte.Encode(buf, uint32(len(e.Positions)))
		positions32 := make([]uint32, len(e.Positions))
		for i, p := range e.Positions {
			positions32[i] = uint32(p)
		}
		buf = vbyte.EncodeDeltas(buf, positions32)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func readPositionStream(r *bufio.Reader, count uint32) ([]PositionEntry, error) {
	out := make([]PositionEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		docID, err := readVByte(r)
		if err != nil {
			return nil, err
		}
		flag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		posCount, err := readVByte(r)
		if err != nil {
			return nil, err
		}
		deltas := make([]uint32, posCount)
		var prev uint32
		for j := range deltas {
			v, err := readVByte(r)
			if err != nil {
				return nil, err
			}
			if j == 0 {
				prev = v
			} else {
				prev += v
			}
			deltas[j] = prev
		}
		positions := make([]uint16, posCount)
		for j, v := range deltas {
			positions[j] = uint16(v)
		}
		out = append(out, PositionEntry{DocID: docID, FieldFlags: flag, Positions: positions})
	}
	return out, nil
}

func writeSyncPoints(w io.Writer, syncs []SyncPoint) error {
	if err := writeU32(w, uint32(len(syncs))); err != nil {
		return err
	}
	for _, s := range syncs {
		if err := writeU32(w, s.DocID); err != nil {
			return err
		}
		if err := writeU32(w, s.PostingIndex); err != nil {
			return err
		}
	}
	return nil
}

func readSyncPoints(r *bufio.Reader) ([]SyncPoint, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]SyncPoint, n)
	for i := range out {
		docID, err := readU32(r)
		if err != nil {
			return nil, err
		}
		idx, err := readU32(r)
		if err != nil {
			return nil, err
		}
		out[i] = SyncPoint{DocID: docID, PostingIndex: idx}
	}
	return out, nil
}

func writeTermBytes(w io.Writer, term string) error {
	if err := writeU32(w, uint32(len(term))); err != nil {
		return err
	}
	_, err := io.WriteString(w, term)
	return err
}

func readTermBytes(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readVByte(r *bufio.Reader) (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < vbyte.MaxLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, io.ErrUnexpectedEOF
}

func wrapWrite(err error) error {
	return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseWriteFailure}
}

func wrapDecode(err error) error {
	return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseDecodeFailure}
}
