package audio

import "sync"

// DefaultBatchChunks is how many media chunks to accumulate before a batch is
// packaged for transcription. Telephony streams deliver one chunk every 20 ms,
// so 50 chunks is roughly one second of audio; the batch threshold trades
// recognition quality (longer batches) against transcript latency.
const DefaultBatchChunks = 50

// Batcher accumulates raw audio chunks for one session and packages them into
// a WAV payload once the configured chunk threshold is reached.
//
// Each session owns exactly one Batcher; the buffer is never shared across
// sessions. The stream transport delivers media events serially, but Flush
// may be called from a different goroutine than Ingest (timer vs. event path),
// so buffer access is guarded by a mutex.
type Batcher struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int // total buffered bytes

	threshold int
	format    Format
}

// NewBatcher creates a Batcher that flushes every threshold chunks and frames
// batches with format. A threshold <= 0 falls back to [DefaultBatchChunks].
func NewBatcher(threshold int, format Format) *Batcher {
	if threshold <= 0 {
		threshold = DefaultBatchChunks
	}
	return &Batcher{threshold: threshold, format: format}
}

// Ingest appends one raw audio chunk to the buffer. When the accumulated
// chunk count reaches the threshold the buffer is packaged and reset, and the
// WAV payload is returned with ok = true; otherwise payload is nil and
// ok = false.
func (b *Batcher) Ingest(chunk []byte) (payload []byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = append(b.chunks, chunk)
	b.size += len(chunk)

	if len(b.chunks) < b.threshold {
		return nil, false
	}
	return b.packageLocked(), true
}

// Flush packages whatever is buffered regardless of the threshold and resets
// the buffer. It returns nil when the buffer is empty. Used at stream
// termination so a partial trailing batch is not lost.
func (b *Batcher) Flush() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.chunks) == 0 {
		return nil
	}
	return b.packageLocked()
}

// Pending returns the number of chunks currently buffered.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// packageLocked concatenates the buffered chunks, applies the WAV container,
// and resets the accumulated state. Caller must hold b.mu.
func (b *Batcher) packageLocked() []byte {
	raw := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		raw = append(raw, c...)
	}
	b.chunks = nil
	b.size = 0
	return EncodeWAV(raw, b.format)
}
