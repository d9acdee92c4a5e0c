package h1c

import "bytes"

// BlockKind tells the glue layer whether a just-finished header block
// belongs to an informational (1xx) response or the final response
// (§4.2 "on_headers_done(block_kind)").
type BlockKind int

const (
	BlockInformational BlockKind = iota
	BlockFinal
)

// DecoderEvents is the set of events the decoder surfaces to whichever
// stream currently occupies the inbound FIFO head (§4.2). Any method
// returning an error is treated as protocol-fatal for the connection
// (§7): the decoder stops consuming further input immediately.
type DecoderEvents interface {
	// BeginResponse is called once per logical response exchange, right
	// after its final (non-1xx, or 101) status line is parsed and before
	// OnStatus for it; informational 1xx status lines do not call it. It
	// reports whether the matched request's method is HEAD, and fails
	// if there is no stream awaiting a response (inbound FIFO empty —
	// §4.2 "Receiving response bytes when the inbound FIFO is empty
	// shuts down").
	BeginResponse() (requestIsHead bool, err error)

	OnStatus(code int, reason []byte) error
	OnHeader(name, value []byte) error
	OnHeadersDone(kind BlockKind) error
	OnBody(p []byte) error
	// OnTrailer delivers a trailer header parsed after a chunked body's
	// terminating 0-size chunk (SPEC_FULL.md §5), before OnComplete.
	OnTrailer(name, value []byte) error
	OnComplete() error

	// ShouldStop is polled after every parsing step of Feed; returning
	// true halts Feed immediately (used for the protocol-upgrade
	// hand-off, §4.4: bytes after the upgrade response's terminating
	// CRLF must reach the downstream handler untouched, not the
	// decoder).
	ShouldStop() bool
}

type decPhase int

const (
	decStatusLine decPhase = iota
	decHeaders
	decBodyFramed
	decBodyChunkedSize
	decBodyChunkedData
	decBodyChunkedDataCRLF
	decBodyChunkedTrailers
)

// closeDelimited marks a framed body with no declared length, ending
// only at connection close (§4.2 grammar, "otherwise").
const closeDelimited = -1

// Decoder parses HTTP/1.1 responses from arbitrarily sliced input
// (§4.2). Grounded on valyala-fasthttp/header.go's resumable
// parseFirstLine/parseHeaders/readRawHeaders (the errNeedMore sentinel
// and growing-scratch-buffer technique) and proxy/chunked.go's
// chunkedReader state for the chunk-size/data/trailer cycle.
type Decoder struct {
	events DecoderEvents

	phase   decPhase
	scratch []byte

	requestIsHead bool
	isInfo        bool
	currentStatus int

	contentLength    int64
	hasContentLength bool
	chunked          bool
	remaining        int64

	crlfGot int
}

// NewDecoder builds a decoder delivering events to ev.
func NewDecoder(ev DecoderEvents) *Decoder {
	return &Decoder{events: ev, phase: decStatusLine}
}

// Feed consumes input and drives the state machine, emitting events as
// grammar units complete. It never blocks and returns as soon as data
// is exhausted, a fatal error occurs, or events.ShouldStop() latches
// true (protocol upgrade). The returned count is how much of data was
// consumed; any remainder belongs to whatever took over the connection
// (the downstream handler, on upgrade) and must not be re-fed here.
func (d *Decoder) Feed(data []byte) (int, error) {
	total := 0
	for len(data) > 0 {
		var n int
		var err error
		switch d.phase {
		case decStatusLine:
			n, err = d.feedStatusLine(data)
		case decHeaders:
			n, err = d.feedHeaders(data)
		case decBodyFramed:
			n, err = d.feedBodyFramed(data)
		case decBodyChunkedSize:
			n, err = d.feedChunkSize(data)
		case decBodyChunkedData:
			n, err = d.feedChunkData(data)
		case decBodyChunkedDataCRLF:
			n, err = d.feedChunkDataCRLF(data)
		case decBodyChunkedTrailers:
			n, err = d.feedTrailers(data)
		}
		if err != nil {
			if err == errNeedMore {
				// Buffered everything available; wait for more input.
				return total, nil
			}
			return total, err
		}
		data = data[n:]
		total += n
		if d.events.ShouldStop() {
			return total, nil
		}
	}
	return total, nil
}

// NotifyConnectionClosed lets a close-delimited body (no Content-Length,
// no chunking) complete when the transport reports EOF.
func (d *Decoder) NotifyConnectionClosed() error {
	if d.phase == decBodyFramed && d.remaining == closeDelimited {
		return d.events.OnComplete()
	}
	return nil
}

func (d *Decoder) feedStatusLine(data []byte) (int, error) {
	buf := append(d.scratch, data...)
	code, reason, consumed, err := parseStatusLine(buf)
	if err == errNeedMore {
		d.scratch = buf
		return len(data), errNeedMore
	}
	if err != nil {
		return 0, err
	}
	usedFromData := consumed - len(d.scratch)
	d.scratch = d.scratch[:0]

	// 101 Switching Protocols is numerically informational but is the
	// final event for its exchange (§4.4 "Protocol upgrade"): no further
	// status line follows it, and it carries no body framing.
	d.isInfo = code >= 100 && code < 200 && code != 101
	d.currentStatus = code
	if !d.isInfo {
		isHead, berr := d.events.BeginResponse()
		if berr != nil {
			return 0, berr
		}
		d.requestIsHead = isHead
	}
	if err := d.events.OnStatus(code, reason); err != nil {
		return 0, err
	}
	d.contentLength = 0
	d.hasContentLength = false
	d.chunked = false
	d.phase = decHeaders
	return usedFromData, nil
}

func (d *Decoder) feedHeaders(data []byte) (int, error) {
	buf := append(d.scratch, data...)
	blockLen, err := findHeaderBlockEnd(buf)
	if err == errNeedMore {
		d.scratch = buf
		return len(data), errNeedMore
	}
	usedFromData := blockLen - len(d.scratch)
	d.scratch = d.scratch[:0]

	s := headerLineScanner{b: buf[:blockLen]}
	for {
		name, value, ok := s.next()
		if !ok {
			break
		}
		if bytesEqualFold(name, strCL) {
			n, perr := parseContentLength(value)
			if perr == nil {
				d.contentLength = int64(n)
				d.hasContentLength = true
			}
		}
		if bytesEqualFold(name, strTE) && bytesEqualFold(bytes.TrimSpace(value), strChunked) {
			d.chunked = true
		}
		if err := d.events.OnHeader(name, value); err != nil {
			return 0, err
		}
	}
	if s.err != nil {
		return 0, s.err
	}

	kind := BlockFinal
	if d.isInfo {
		kind = BlockInformational
	}
	if err := d.events.OnHeadersDone(kind); err != nil {
		return 0, err
	}

	if d.isInfo {
		d.phase = decStatusLine
		return usedFromData, nil
	}
	return usedFromData, d.beginBody()
}

func (d *Decoder) beginBody() error {
	switch {
	case noBody(d.currentStatus, d.requestIsHead):
		return d.completeNoBody()
	case d.chunked:
		d.phase = decBodyChunkedSize
		return nil
	case d.hasContentLength:
		d.remaining = d.contentLength
		if d.remaining == 0 {
			return d.completeNoBody()
		}
		d.phase = decBodyFramed
		return nil
	default:
		// No framing header: body runs to connection close. The status
		// code alone may still force no-body (1xx/204/304) even without
		// Content-Length.
		d.remaining = closeDelimited
		d.phase = decBodyFramed
		return nil
	}
}

func (d *Decoder) completeNoBody() error {
	d.phase = decStatusLine
	return d.events.OnComplete()
}

func (d *Decoder) feedBodyFramed(data []byte) (int, error) {
	if d.remaining == closeDelimited {
		if err := d.events.OnBody(data); err != nil {
			return 0, err
		}
		return len(data), nil
	}
	n := int64(len(data))
	if n > d.remaining {
		n = d.remaining
	}
	if n > 0 {
		if err := d.events.OnBody(data[:n]); err != nil {
			return 0, err
		}
	}
	d.remaining -= n
	if d.remaining == 0 {
		d.phase = decStatusLine
		if err := d.events.OnComplete(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

func (d *Decoder) feedChunkSize(data []byte) (int, error) {
	buf := append(d.scratch, data...)
	line, rest, err := nextLine(buf)
	if err == errNeedMore {
		d.scratch = buf
		return len(data), errNeedMore
	}
	usedFromData := (len(buf) - len(rest)) - len(d.scratch)
	d.scratch = d.scratch[:0]

	size, consumed, perr := parseHexUint(line)
	if perr != nil {
		return 0, WrapError(Protocol, perr, "chunk size")
	}
	_ = consumed // extensions are tolerated and ignored (§4.2)

	if size == 0 {
		d.phase = decBodyChunkedTrailers
		return usedFromData, nil
	}
	d.remaining = int64(size)
	d.phase = decBodyChunkedData
	return usedFromData, nil
}

func (d *Decoder) feedChunkData(data []byte) (int, error) {
	n := int64(len(data))
	if n > d.remaining {
		n = d.remaining
	}
	if n > 0 {
		if err := d.events.OnBody(data[:n]); err != nil {
			return 0, err
		}
	}
	d.remaining -= n
	if d.remaining == 0 {
		d.crlfGot = 0
		d.phase = decBodyChunkedDataCRLF
	}
	return int(n), nil
}

func (d *Decoder) feedChunkDataCRLF(data []byte) (int, error) {
	want := crlfBytes
	i := 0
	for i < len(data) && d.crlfGot < len(want) {
		if data[i] != want[d.crlfGot] {
			return 0, WrapError(Protocol, nil, "malformed chunk terminator")
		}
		d.crlfGot++
		i++
	}
	if d.crlfGot == len(want) {
		d.phase = decBodyChunkedSize
	}
	return i, nil
}

func (d *Decoder) feedTrailers(data []byte) (int, error) {
	buf := append(d.scratch, data...)
	blockLen, err := findHeaderBlockEnd(buf)
	if err == errNeedMore {
		d.scratch = buf
		return len(data), errNeedMore
	}
	usedFromData := blockLen - len(d.scratch)
	d.scratch = d.scratch[:0]

	s := headerLineScanner{b: buf[:blockLen]}
	for {
		name, value, ok := s.next()
		if !ok {
			break
		}
		if err := d.events.OnTrailer(name, value); err != nil {
			return 0, err
		}
	}
	if s.err != nil {
		return 0, s.err
	}
	d.phase = decStatusLine
	return usedFromData, d.events.OnComplete()
}
