package h1c

// ChunkExtension is a single ";key=value" pair on a chunk-size line
// (§3, §6). Keys and values are opaque byte strings; either may be
// arbitrarily large, so the encoder streams them across buffer
// boundaries rather than materializing the whole chunk-size line.
type ChunkExtension struct {
	Key   []byte
	Value []byte
}

// ChunkDescriptor is one user-submitted chunk (§3). A chunk with
// DeclaredSize 0 is the terminator; submitting anything after it is a
// programmer error (ErrChunkAfterTerminator).
//
// Grounded on proxy/chunked.go's chunk-extension grammar
// (removeChunkExtension/parseHexUint) and on valyala-fasthttp/
// streaming.go's chunked requestStream, generalized from a read-only
// reader into a write-side descriptor the user enqueues asynchronously.
type ChunkDescriptor struct {
	Producer     BodyProducer
	DeclaredSize int64
	Extensions   []ChunkExtension

	// OnComplete, if non-nil, is invoked exactly once: on success, after
	// the chunk's last byte has been emitted; on failure, if the stream
	// is cancelled or the chunk's length doesn't match DeclaredSize.
	// UserData is passed back unexamined, matching the teacher's
	// opaque-userdata callback convention (cookiejar.go/userdata.go).
	OnComplete func(userData any, err error)
	UserData   any
}

// Terminator returns true for the 0-size termination marker.
func (c *ChunkDescriptor) Terminator() bool { return c.DeclaredSize == 0 }

// ChunkQueue is the per-stream FIFO of chunk descriptors (§2 "Chunk
// queue (≈8%)"). Feeds the encoder while the stream is in chunked mode.
type ChunkQueue struct {
	items       []*ChunkDescriptor
	terminated  bool
	afterTermAt bool
}

// Push enqueues a chunk. Returns ErrChunkAfterTerminator if the
// terminator has already been enqueued.
func (q *ChunkQueue) Push(c *ChunkDescriptor) error {
	if q.terminated {
		q.afterTermAt = true
		return ErrChunkAfterTerminator
	}
	q.items = append(q.items, c)
	if c.Terminator() {
		q.terminated = true
	}
	return nil
}

// Empty reports whether the queue currently has no chunk to emit. Per
// §4.1 "Chunked back-pressure": the encoder treats this as "nothing
// emittable right now" and returns NeedMoreBody rather than blocking.
func (q *ChunkQueue) Empty() bool { return len(q.items) == 0 }

// Front returns the head-of-queue chunk without removing it, or nil.
func (q *ChunkQueue) Front() *ChunkDescriptor {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Pop removes and returns the head-of-queue chunk.
func (q *ChunkQueue) Pop() *ChunkDescriptor {
	c := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return c
}

// Terminated reports whether the 0-size terminator has been enqueued
// (not necessarily yet emitted).
func (q *ChunkQueue) Terminated() bool { return q.terminated }

// Drain releases every remaining chunk's producer via its completion
// callback with err, used when a stream is cancelled mid-chunk (§5
// "Shared resources").
func (q *ChunkQueue) Drain(err error) {
	for _, c := range q.items {
		if c.OnComplete != nil {
			c.OnComplete(c.UserData, err)
		}
	}
	q.items = nil
}
