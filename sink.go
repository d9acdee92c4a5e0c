package h1c

import (
	"github.com/valyala/bytebufferpool"
)

// WriteBuffer is a bounded-capacity write unit handed to the encoder.
// It wraps a pooled byte buffer so repeated Encode/Push cycles don't
// allocate. Its capacity (maxCap at acquisition) is the maximum number
// of bytes the sink is willing to push in one unit; the encoder never
// writes past it.
type WriteBuffer struct {
	buf *bytebufferpool.ByteBuffer
	cap int
}

var writeBufferPool bytebufferpool.Pool

// AcquireWriteBuffer returns an empty write buffer bounded to maxCap
// bytes, reusing a pooled backing array where possible.
func AcquireWriteBuffer(maxCap int) *WriteBuffer {
	return &WriteBuffer{
		buf: writeBufferPool.Get(),
		cap: maxCap,
	}
}

// ReleaseWriteBuffer returns a write buffer to the pool. The buffer must
// not be touched afterwards.
func ReleaseWriteBuffer(wb *WriteBuffer) {
	writeBufferPool.Put(wb.buf)
	wb.buf = nil
}

// Len returns the number of bytes currently queued in the buffer.
func (wb *WriteBuffer) Len() int { return len(wb.buf.B) }

// Avail returns how many more bytes can be appended before the
// capacity is hit.
func (wb *WriteBuffer) Avail() int { return wb.cap - len(wb.buf.B) }

// Full reports whether the buffer has no remaining capacity.
func (wb *WriteBuffer) Full() bool { return wb.Avail() <= 0 }

// Bytes returns the buffer's current contents.
func (wb *WriteBuffer) Bytes() []byte { return wb.buf.B }

// Append writes as much of p as fits within the remaining capacity and
// returns the number of bytes consumed. It never blocks and never
// writes more than Avail() bytes.
func (wb *WriteBuffer) Append(p []byte) int {
	avail := wb.Avail()
	if avail <= 0 {
		return 0
	}
	if len(p) > avail {
		p = p[:avail]
	}
	wb.buf.B = append(wb.buf.B, p...)
	return len(p)
}

// Reset clears the buffer for reuse without returning it to the pool.
func (wb *WriteBuffer) Reset() {
	wb.buf.Reset()
}

// ByteSink is the downstream channel contract (§6): the transport the
// engine is layered on top of. Implementations are expected to be
// supplied by a socket/TLS handler, a test double, or anything else
// that can move bytes; the engine never constructs one itself.
type ByteSink interface {
	// AcquireWrite returns a write buffer of bounded capacity that the
	// encoder may fill and later hand back via PushWrite.
	AcquireWrite() *WriteBuffer

	// PushWrite hands a filled write buffer to the transport. Ownership
	// passes with the call; the engine must not touch wb afterwards.
	PushWrite(wb *WriteBuffer)

	// WindowIncrement notifies the transport that n more bytes of read
	// window have been re-opened for this connection.
	WindowIncrement(n int)

	// ShutdownRead and ShutdownWrite notify the transport that the
	// engine will not consume/produce any more bytes in that direction.
	ShutdownRead()
	ShutdownWrite()
}

// DownstreamHandler receives the byte pipe after a successful protocol
// upgrade (§4.4). Once installed, every subsequent inbound slice is
// handed to HandleRead untouched. The handler has no outbound path
// through the Connection, which writes nothing further to the sink.
type DownstreamHandler interface {
	// OnInstall is called once, synchronously, when the upgrade
	// completes. trailing holds any bytes that arrived in the same
	// input slice as the upgrade response, after its terminating CRLF;
	// it may be empty.
	OnInstall(trailing []byte)

	// HandleRead delivers subsequent inbound bytes verbatim.
	HandleRead(p []byte)
}

// TaskPoster is the on-loop/off-loop gate (§5, §9): every public entry
// point that mutates engine state goes through AmIOnLoop, and off-loop
// callers route through Post instead of touching state directly.
type TaskPoster interface {
	// AmIOnLoop reports whether the calling goroutine is the engine's
	// owning loop thread.
	AmIOnLoop() bool

	// Post schedules fn to run on the loop thread. Safe to call from
	// any thread; preserves submission order per calling goroutine.
	Post(fn func())
}
