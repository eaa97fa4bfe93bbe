package docstore

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/mithril-search/mithril/pkg/fileutil"
	"github.com/mithril-search/mithril/pkg/hashutil"
)

// record is the on-disk, gzip-compressed, newline-delimited encoding of one
// Document. The format itself is an opaque collaborator concern (spec
// Non-goals); JSON keeps the writer/reader trivially symmetric.
type record struct {
	ID           uint32   `json:"id"`
	URL          string   `json:"url"`
	Title        []string `json:"title"`
	Description  []string `json:"description"`
	Words        []string `json:"words"`
	ForwardLinks []string `json:"forwardLinks"`
	ContentHash  string   `json:"contentHash"`
}

// Writer appends Documents to a single gzip-compressed store file,
// assigning each a dense, sequential id starting at 0.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	gz     *gzip.Writer
	enc    *json.Encoder
	nextID uint32
}

// NewWriter creates (or truncates) the store file at path.
func NewWriter(path string) (*Writer, error) {
	if err := fileutil.EnsureDir(dirOf(path)); err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	gz := gzip.NewWriter(f)
	return &Writer{file: f, gz: gz, enc: json.NewEncoder(gz)}, nil
}

// Append writes doc, assigns it the next dense id, and returns the id.
func (w *Writer) Append(doc Document) (uint32, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	hash, err := hashutil.HashBytes([]byte(doc.url+joinWords(doc.words)), hashutil.HashAlgoBLAKE3)
	if err != nil {
		return 0, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseWriteFailure}
	}

	rec := record{
		ID:           id,
		URL:          doc.url,
		Title:        doc.title,
		Description:  doc.description,
		Words:        doc.words,
		ForwardLinks: doc.forwardLinks,
		ContentHash:  hash,
	}
	if err := w.enc.Encode(rec); err != nil {
		return 0, &Error{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailure}
	}
	return id, nil
}

// Count reports how many documents have been appended so far.
func (w *Writer) Count() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextID
}

// Close flushes the gzip stream and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.gz.Close(); err != nil {
		return &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseWriteFailure}
	}
	return w.file.Close()
}

// Reader streams Documents back out of a store file in append order, which
// is also id order since the Writer assigns ids densely and sequentially.
type Reader struct {
	file *os.File
	gz   *gzip.Reader
	dec  *json.Decoder
}

// NewReader opens path for sequential reading.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailure}
	}
	return &Reader{file: f, gz: gz, dec: json.NewDecoder(gz)}, nil
}

// Next decodes the next Document, returning (Document{}, false, nil) at EOF.
func (r *Reader) Next() (Document, bool, error) {
	var rec record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, false, nil
		}
		return Document{}, false, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseDecodeFailure}
	}
	doc := Document{
		id:           rec.ID,
		url:          rec.URL,
		title:        rec.Title,
		description:  rec.Description,
		words:        rec.Words,
		forwardLinks: rec.ForwardLinks,
		contentHash:  rec.ContentHash,
	}
	return doc, true, nil
}

// Close releases the underlying file handles.
func (r *Reader) Close() error {
	if err := r.gz.Close(); err != nil {
		return err
	}
	return r.file.Close()
}

func joinWords(words []string) string {
	out := make([]byte, 0, 64)
	for _, w := range words {
		out = append(out, w...)
		out = append(out, ' ')
	}
	return string(out)
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
