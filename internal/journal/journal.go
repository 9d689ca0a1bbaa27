package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/danmuck/imgauge/internal/protocol/frame"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

var ErrClosed = errors.New("journal: closed")

// Entry is one journaled frame.
type Entry struct {
	Session    uuid.UUID   `cbor:"1,keyasint"`
	CapturedAt time.Time   `cbor:"2,keyasint"`
	Frame      frame.Frame `cbor:"3,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("journal: cbor encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("journal: cbor decoder mode: %v", err))
	}
}

// Writer appends entries to a journal file. It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	file    *os.File
	enc     *cbor.Encoder
	session uuid.UUID
	now     func() time.Time
	closed  bool
}

// Create opens path for appending, creating it with mode 0644 when missing.
// Every entry written carries a fresh session id.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &Writer{
		file:    f,
		enc:     encMode.NewEncoder(f),
		session: uuid.New(),
		now:     time.Now,
	}, nil
}

func (w *Writer) Session() uuid.UUID {
	return w.session
}

// Append writes one entry per frame, in order.
func (w *Writer) Append(frames ...frame.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	at := w.now().UTC()
	for _, f := range frames {
		if err := w.enc.Encode(Entry{Session: w.session, CapturedAt: at, Frame: f}); err != nil {
			return fmt.Errorf("journal: encode: %w", err)
		}
	}
	return nil
}

// Close is idempotent; Append after Close returns ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// Reader iterates entries of a journal stream.
type Reader struct {
	dec *cbor.Decoder
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next entry, or io.EOF after the last one.
func (r *Reader) Next() (Entry, error) {
	var e Entry
	if err := r.dec.Decode(&e); err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("journal: decode: %w", err)
	}
	return e, nil
}

// ReadAll loads every entry of the journal at path.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	r := NewReader(f)
	var out []Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}
