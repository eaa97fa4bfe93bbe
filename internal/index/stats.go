package index

import (
	"os"

	"github.com/mithril-search/mithril/pkg/fileutil"
)

// Stats mirrors index_stats.data, per spec §6: corpus-wide totals the
// ranker needs (document count and total field lengths for BM25's L_avg).
type Stats struct {
	DocCount   uint32
	BodyTotal  uint64
	TitleTotal uint64
	URLTotal   uint64
	DescTotal  uint64
}

// WriteStats writes s to path.
func WriteStats(path string, s Stats) error {
	if err := fileutil.EnsureDir(dirOf(path)); err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	f, err := os.Create(path)
	if err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	defer f.Close()

	if err := writeU32(f, s.DocCount); err != nil {
		return wrapWrite(err)
	}
	if err := writeU64(f, s.BodyTotal); err != nil {
		return wrapWrite(err)
	}
	if err := writeU64(f, s.TitleTotal); err != nil {
		return wrapWrite(err)
	}
	if err := writeU64(f, s.URLTotal); err != nil {
		return wrapWrite(err)
	}
	return writeU64(f, s.DescTotal)
}

// LoadStats reads index_stats.data from path.
func LoadStats(path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	c := &byteCursor{buf: data}
	docCount, err := c.u32()
	if err != nil {
		return Stats{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}
	bodyTotal, err := c.u64()
	if err != nil {
		return Stats{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}
	titleTotal, err := c.u64()
	if err != nil {
		return Stats{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}
	urlTotal, err := c.u64()
	if err != nil {
		return Stats{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}
	descTotal, err := c.u64()
	if err != nil {
		return Stats{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseCorruptData}
	}
	return Stats{
		DocCount:   docCount,
		BodyTotal:  bodyTotal,
		TitleTotal: titleTotal,
		URLTotal:   urlTotal,
		DescTotal:  descTotal,
	}, nil
}

// AvgBodyLength returns L_avg for BM25 over the body field.
func (s Stats) AvgBodyLength() float64 {
	if s.DocCount == 0 {
		return 0
	}
	return float64(s.BodyTotal) / float64(s.DocCount)
}
