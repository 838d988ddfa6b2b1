package llm

import (
	"errors"
	"io"
	"sync"
)

const readBufferSize = 4096

// Stream is the byte stream of a streamed completion. Both backends produce
// one: DirectHTTP wraps the response body, HostBridge wraps a pipe fed with
// re-encoded SSE records.
//
// At most one StreamReader may hold the stream at a time. Cancel closes the
// underlying body and remembers the first reason given.
type Stream struct {
	body io.ReadCloser

	mu        sync.Mutex
	locked    bool
	cancelled bool
	reason    string
}

// NewStream wraps body.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{body: body}
}

// Locked reports whether a reader currently holds the stream.
func (s *Stream) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Reader locks the stream and returns a reader for it.
func (s *Stream) Reader() (*StreamReader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, ErrStreamLocked
	}
	s.locked = true
	return &StreamReader{s: s, buf: make([]byte, readBufferSize)}, nil
}

// Cancel closes the stream. Only the first call has an effect.
func (s *Stream) Cancel(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return nil
	}
	s.cancelled = true
	s.reason = reason
	return s.body.Close()
}

// Cancelled reports whether Cancel was called.
func (s *Stream) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// CancelReason returns the reason passed to the first Cancel.
func (s *Stream) CancelReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// StreamReader reads chunks from a locked Stream.
type StreamReader struct {
	s   *Stream
	buf []byte
}

// Read blocks until the next chunk arrives. done is true once the stream is
// exhausted or was cancelled; the chunk returned alongside may still hold data.
func (r *StreamReader) Read() (chunk []byte, done bool, err error) {
	n, err := r.s.body.Read(r.buf)
	if n > 0 {
		chunk = append([]byte(nil), r.buf[:n]...)
	}
	switch {
	case err == nil:
		return chunk, false, nil
	case errors.Is(err, io.EOF), r.s.Cancelled():
		return chunk, true, nil
	default:
		return chunk, false, err
	}
}

// Cancel cancels the underlying stream with the given reason.
func (r *StreamReader) Cancel(reason string) error {
	return r.s.Cancel(reason)
}

// ReleaseLock lets another reader take the stream.
func (r *StreamReader) ReleaseLock() {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locked = false
}
