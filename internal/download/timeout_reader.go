package download

import (
	"errors"
	"io"
	"time"
)

// errChunkTimeout fails an attempt when a single body read stalls. The
// message must stay matchable by the timeout retry keywords.
var errChunkTimeout = errors.New("chunk read timed out")

// timeoutReader bounds each Read on the wrapped body. The body belongs to a
// single attempt; on timeout the attempt is abandoned and the body closed,
// which unblocks the pending read.
type timeoutReader struct {
	r       io.ReadCloser
	timeout time.Duration
	results chan readResult
	pending bool
	buf     []byte
}

type readResult struct {
	n   int
	err error
}

func newTimeoutReader(r io.ReadCloser, timeout time.Duration) *timeoutReader {
	return &timeoutReader{
		r:       r,
		timeout: timeout,
		results: make(chan readResult, 1),
	}
}

func (t *timeoutReader) Read(p []byte) (int, error) {
	if !t.pending {
		if cap(t.buf) < len(p) {
			t.buf = make([]byte, len(p))
		}
		t.pending = true
		buf := t.buf[:len(p)]
		go func() {
			n, err := t.r.Read(buf)
			t.results <- readResult{n, err}
		}()
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case res := <-t.results:
		t.pending = false
		copy(p, t.buf[:res.n])
		return res.n, res.err
	case <-timer.C:
		return 0, errChunkTimeout
	}
}

func (t *timeoutReader) Close() error {
	return t.r.Close()
}
