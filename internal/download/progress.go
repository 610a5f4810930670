package download

// ProgressInfo is a single progress sample. Byte-progress ticks carry
// percentage/speed/byte counters; retry notifications set IsRetrying and
// RetryReason instead.
type ProgressInfo struct {
	Percentage  float64 `json:"percentage"`
	Speed       float64 `json:"speed"` // MB/s, measured over the current run
	Downloaded  int64   `json:"downloaded"`
	Total       int64   `json:"total"` // 0 when the server did not report a size
	RetryCount  int     `json:"retry_count"`
	IsRetrying  bool    `json:"is_retrying"`
	RetryReason string  `json:"retry_reason,omitempty"`
}

// ProgressFunc receives progress samples. It is invoked from the streaming
// hot path and must not block.
type ProgressFunc func(ProgressInfo)

// Sink is a bounded observer the orchestrator pushes samples into. The
// consumer drains Samples on its own schedule; when it falls behind, new
// samples are dropped rather than stalling the transfer.
type Sink struct {
	ch chan ProgressInfo
}

// NewSink creates a sink with the given buffer capacity.
func NewSink(buffer int) *Sink {
	if buffer <= 0 {
		buffer = 64
	}
	return &Sink{ch: make(chan ProgressInfo, buffer)}
}

// Push offers a sample without blocking.
func (s *Sink) Push(p ProgressInfo) {
	select {
	case s.ch <- p:
	default:
	}
}

// Samples returns the channel the consumer drains.
func (s *Sink) Samples() <-chan ProgressInfo {
	return s.ch
}

// Close signals the consumer that no more samples will arrive.
func (s *Sink) Close() {
	close(s.ch)
}

// Callback adapts the sink to the ProgressFunc the engine expects.
func (s *Sink) Callback() ProgressFunc {
	return s.Push
}
