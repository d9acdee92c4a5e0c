package h1c

import "io"

// BodyProducer is the request body contract (§4.1). The encoder pulls
// from it whenever it has room in the current write buffer; it must
// never block and may return any nonzero amount up to len(dest) per
// call.
//
// Grounded on valyala-fasthttp/streaming.go's requestStream, inverted:
// the teacher's requestStream is read by bufio against a blocking
// net.Conn; a BodyProducer here is pulled by the encoder's own
// nonblocking cursor, so it must never block. End of data is reported
// through Done, not through Read's error: any non-nil error from Read
// fails the stream.
type BodyProducer interface {
	// Read copies up to len(dest) bytes into dest and returns the
	// number written. May return (0, nil) only before any bytes have
	// ever been produced; not a busy-wait contract beyond that.
	Read(dest []byte) (n int, err error)

	// Done reports whether the producer has reached EOF.
	Done() bool

	// Length returns the producer's declared total length, if known.
	// A Content-Length request requires this; a chunked request does
	// not use it (each chunk declares its own size instead).
	Length() (n int64, ok bool)
}

// BytesBodyProducer serves a fixed in-memory byte slice. Grounded on
// the teacher's prefetched-bytes fast path in requestStream.Read.
type BytesBodyProducer struct {
	b   []byte
	off int
}

// NewBytesBodyProducer wraps b as a BodyProducer of declared length
// len(b).
func NewBytesBodyProducer(b []byte) *BytesBodyProducer {
	return &BytesBodyProducer{b: b}
}

func (p *BytesBodyProducer) Read(dest []byte) (int, error) {
	n := copy(dest, p.b[p.off:])
	p.off += n
	return n, nil
}

func (p *BytesBodyProducer) Done() bool { return p.off >= len(p.b) }

func (p *BytesBodyProducer) Length() (int64, bool) { return int64(len(p.b)), true }

// ReaderBodyProducer adapts an io.Reader of a known or unknown length.
// hasLength=false means the length is unknown (only legal for a chunked
// request, since Content-Length framing requires a declared length).
type ReaderBodyProducer struct {
	r         io.Reader
	declared  int64
	hasLength bool
	produced  int64
	done      bool

	// lookahead holds a single byte pulled from r to confirm true EOF
	// once produced reaches declared, so a reader carrying more bytes
	// than it declared is caught (§4.1 "over-length") instead of Done
	// latching true on byte-count alone.
	lookahead    byte
	hasLookahead bool
}

// NewReaderBodyProducer wraps r, declaring length bytes of output (pass
// hasLength=false for a producer whose length isn't known up front).
func NewReaderBodyProducer(r io.Reader, length int64, hasLength bool) *ReaderBodyProducer {
	return &ReaderBodyProducer{r: r, declared: length, hasLength: hasLength}
}

func (p *ReaderBodyProducer) Read(dest []byte) (int, error) {
	if p.done {
		return 0, nil
	}
	if p.hasLookahead {
		if len(dest) == 0 {
			return 0, nil
		}
		dest[0] = p.lookahead
		p.hasLookahead = false
		p.produced++
		return 1, nil
	}
	n, err := p.r.Read(dest)
	p.produced += int64(n)
	if err == io.EOF {
		p.done = true
		return n, nil
	}
	if p.hasLength && p.produced >= p.declared {
		var one [1]byte
		ln, lerr := p.r.Read(one[:])
		switch {
		case ln > 0:
			// r still has data beyond declared: stash it and stay not
			// done, so the encoder's length check sees the overrun.
			p.lookahead = one[0]
			p.hasLookahead = true
		case lerr == io.EOF:
			p.done = true
		}
	}
	return n, nil
}

func (p *ReaderBodyProducer) Done() bool { return p.done }

func (p *ReaderBodyProducer) Length() (int64, bool) { return p.declared, p.hasLength }
