// Package stream sends a file to a writer in fixed-size chunks and runs a
// completion hook once the transfer reaches any terminal state.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 8 * 1024

// Source owns an open file until Close. Close closes the file and then runs
// the completion hook exactly once, whether the stream drained, failed, was
// cancelled, or was never started.
type Source struct {
	f         *os.File
	size      int64
	chunkSize int
	onDone    func()

	once     sync.Once
	closeErr error
}

// Open opens path for streaming. When Open fails the hook is not run; the
// caller still owns cleanup of whatever it was guarding.
func Open(path string, chunkSize int, onDone func()) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Source{
		f:         f,
		size:      info.Size(),
		chunkSize: chunkSize,
		onDone:    onDone,
	}, nil
}

// Size is the file size observed at Open.
func (s *Source) Size() int64 { return s.size }

// Stream copies the file to w one chunk at a time and closes the source
// when it returns. Only one chunk is buffered at any moment. When w is an
// http.Flusher each chunk is flushed before the next read.
func (s *Source) Stream(ctx context.Context, w io.Writer) (written int64, err error) {
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, s.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, rerr := s.f.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("write chunk: %w", werr)
			}
			if m != n {
				return written, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("read chunk: %w", rerr)
		}
	}
}

// Close releases the file and runs the completion hook. Later calls return
// the first call's result without side effects.
func (s *Source) Close() error {
	s.once.Do(func() {
		s.closeErr = s.f.Close()
		if s.onDone != nil {
			s.onDone()
		}
	})
	return s.closeErr
}
