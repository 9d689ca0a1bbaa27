package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSourceDecodesLatin1(t *testing.T) {
	raw := "ST\t01\r\nIT\t2\t30,1\t\xb0\tAngle\r\nEN"
	src := NewReaderSource(strings.NewReader(raw))

	lines, err := src.ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ST\t01", "IT\t2\t30,1\t°\tAngle", "EN"}, lines)

	_, err = src.ReadBatch(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderSourceLongLine(t *testing.T) {
	long := "IT\t1\t" + strings.Repeat("\xb0", 3*maxBatchBytes)
	src := NewReaderSource(strings.NewReader("ST\t01\r\n" + long + "\r\nEN\r\n"))

	lines, err := src.ReadBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "IT\t1\t"+strings.Repeat("°", 3*maxBatchBytes), lines[1])
	assert.Equal(t, "EN", lines[2])
}

func TestReaderSourceLineTooLong(t *testing.T) {
	src := NewReaderSource(strings.NewReader(strings.Repeat("x", maxLineBytes+1) + "\n"))
	_, err := src.ReadBatch(context.Background())
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestReaderSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReaderSource(strings.NewReader("ST\nEN\n")).ReadBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitLinesKeepsTail(t *testing.T) {
	lines, rest := SplitLines([]byte("ST\t01\r\nSE\tx\ty\r\nDA\t2014"))
	assert.Equal(t, []string{"ST\t01", "SE\tx\ty"}, lines)
	assert.Equal(t, "DA\t2014", string(rest))

	lines, rest = SplitLines([]byte("partial"))
	assert.Nil(t, lines)
	assert.Equal(t, "partial", string(rest))
}

type fakePort struct {
	mu      sync.Mutex
	chunks  [][]byte
	err     error
	closed  bool
	timeout time.Duration
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		return 0, nil
	}
	chunk := p.chunks[0]
	n := copy(b, chunk)
	if n < len(chunk) {
		p.chunks[0] = chunk[n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (p *fakePort) push(chunks ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range chunks {
		p.chunks = append(p.chunks, []byte(c))
	}
}

func TestSerialSourceHoldsPartialLine(t *testing.T) {
	port := &fakePort{}
	port.push("ST\t01\r\nSE\tIM-1", "\t2.10\r\nDA")
	src := NewSerialSource(port)

	lines, err := src.ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ST\t01", "SE\tIM-1\t2.10"}, lines)

	port.push("\t2014/08/12\t10:00:00\r\n")
	lines, err = src.ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DA\t2014/08/12\t10:00:00"}, lines)

	lines, err = src.ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, src.Close())
	assert.True(t, port.closed)
}

func TestSerialSourceReadError(t *testing.T) {
	boom := errors.New("device gone")
	src := NewSerialSource(&fakePort{err: boom})
	_, err := src.ReadBatch(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSerialSourceLargeChunkSplitAcrossReads(t *testing.T) {
	line := strings.Repeat("x", readChunk+10)
	port := &fakePort{}
	port.push(line + "\n")
	lines, err := NewSerialSource(port).ReadBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, line, lines[0])
}
