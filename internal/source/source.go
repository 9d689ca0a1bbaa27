package source

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// maxLineBytes bounds one decoded line. Latin-1 bytes above 0x7F widen to
// two bytes once decoded, so it leaves room for a full serial batch.
const maxLineBytes = 1 << 20

// LineSource yields batches of complete lines, terminators stripped.
// An empty batch with a nil error means nothing new arrived.
type LineSource interface {
	ReadBatch(ctx context.Context) ([]string, error)
}

// ReaderSource reads a finite stream such as a capture file or stdin. The
// first ReadBatch returns every line; later calls return io.EOF.
type ReaderSource struct {
	r    io.Reader
	done bool
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) ReadBatch(ctx context.Context) ([]string, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true

	sc := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(s.r))
	sc.Buffer(make([]byte, 0, readChunk*4), maxLineBytes)
	var lines []string
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Close closes the underlying reader when it is an io.Closer.
func (s *ReaderSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SplitLines decodes the complete lines in buf as ISO-8859-1 and returns
// them with the unterminated remainder.
func SplitLines(buf []byte) (lines []string, rest []byte) {
	last := bytes.LastIndexByte(buf, '\n')
	if last < 0 {
		return nil, buf
	}
	complete, rest := buf[:last], buf[last+1:]
	for _, raw := range bytes.Split(complete, []byte{'\n'}) {
		raw = bytes.TrimSuffix(raw, []byte{'\r'})
		lines = append(lines, decodeLatin1(raw))
	}
	return lines, rest
}

func decodeLatin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO-8859-1 maps every byte; unreachable in practice.
		return string(b)
	}
	return string(out)
}
