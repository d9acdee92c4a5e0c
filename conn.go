package h1c

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Connection is the stream scheduler: one HTTP/1.1 connection's worth of
// pipelined request/response exchanges, driven entirely by calls from
// its embedder (ByteSink reads, TaskPoster-gated public API) rather
// than by any goroutine or blocking I/O of its own (§4.3, §4.4, §5).
//
// Grounded on valyala-fasthttp's HostClient, generalized from "one
// blocking call per request on a pooled connection" into an explicit
// scheduler over two independent FIFOs, the way packetd's session
// tracker threads a single-direction event stream through per-flow
// state instead of blocking per packet.
type Connection struct {
	cfg    Config
	sink   ByteSink
	poster TaskPoster

	logger  *zap.Logger
	metrics *Metrics

	dec *Decoder
	enc *Encoder

	// outgoing holds streams not yet fully sent, head-first. outgoing[0]
	// is whichever stream enc is currently serializing, if enc != nil.
	outgoing []*Stream

	// inbound holds streams awaiting or receiving a response, in the
	// exact order their requests were activated — HTTP/1.1 guarantees
	// responses arrive in that same order (§4.3 "Pipelining").
	inbound []*Stream

	credit int64 // outstanding read-window credit granted to the transport

	newRequestsAllowed  bool
	closingAfterResponse bool
	switchedProtocols   bool
	shutDown            bool

	downstream DownstreamHandler

	shutdownErrs *multierror.Error
}

// NewConnection builds a Connection over sink, gated by poster, with
// cfg's initial read-window credit already announced to the transport.
func NewConnection(sink ByteSink, poster TaskPoster, cfg Config) *Connection {
	c := &Connection{
		cfg:                cfg,
		sink:                sink,
		poster:              poster,
		logger:              orNopLogger(cfg.Logger),
		metrics:             NewMetrics(cfg.Registerer),
		newRequestsAllowed:  true,
		credit:              cfg.InitialWindow,
	}
	c.dec = NewDecoder(c)
	if cfg.InitialWindow > 0 {
		c.sink.WindowIncrement(int(cfg.InitialWindow))
	}
	c.metrics.setWindow(c.credit)
	return c
}

// SetDownstreamHandler installs the handler that takes over the byte
// pipe on a successful protocol upgrade (§4.4). Must be called before
// the upgrading stream's response arrives; typically right after
// Activate for a request with WantUpgrade set.
func (c *Connection) SetDownstreamHandler(h DownstreamHandler) { c.downstream = h }

// IsOpen reports whether this Connection still speaks HTTP/1.1 over
// the sink: false once shut down, once a protocol upgrade has handed
// the pipe to a DownstreamHandler, or as soon as a response carrying
// Connection: close has been matched to its stream (§4.3
// "closing-after-response" — observable false starting with that
// stream's own completion callback, not just after the drain that
// follows it).
func (c *Connection) IsOpen() bool {
	return !c.shutDown && !c.switchedProtocols && !c.closingAfterResponse
}

// NewRequestsAllowed reports whether MakeRequest/Activate may still be
// used to start a new exchange (§4.3 "closing-after-response").
func (c *Connection) NewRequestsAllowed() bool {
	return c.newRequestsAllowed && !c.shutDown && !c.switchedProtocols
}

// ShutdownError returns the aggregated diagnostic for why the
// connection shut down, or nil if it is still open.
func (c *Connection) ShutdownError() error {
	if c.shutdownErrs == nil {
		return nil
	}
	return c.shutdownErrs.ErrorOrNil()
}

func (c *Connection) ensureOnLoop(fn func()) {
	if c.poster.AmIOnLoop() {
		fn()
		return
	}
	c.poster.Post(fn)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// MakeRequest allocates a Stream for req in its unactivated state. It
// does not touch any FIFO; call Activate to actually queue it for
// sending (§3 "unactivated -> queued").
func (c *Connection) MakeRequest(req *Request) *Stream {
	return &Stream{
		ID:      uuid.New(),
		Request: req,
		state:   StateUnactivated,
		window:  c.cfg.InitialWindow,
		conn:    c,
	}
}

// Activate queues s for sending and wires its callbacks. Idempotent:
// only the first call on a given stream has any effect (§3 "user
// surface"); later calls are silent no-ops. If the connection is no
// longer accepting new requests, s completes immediately with
// ConnectionClosed (delivered via onComplete either way; the return
// value is only meaningful when called on-loop).
func (c *Connection) Activate(s *Stream, onComplete CompletionFunc, onHeader HeaderCallback, onBody BodyCallback) error {
	var rejectErr error
	c.ensureOnLoop(func() {
		if s.state != StateUnactivated {
			return
		}
		s.onComplete, s.onHeader, s.onBody = onComplete, onHeader, onBody
		if !c.NewRequestsAllowed() {
			rejectErr = NewError(ConnectionClosed)
			c.completeStream(s, rejectErr)
			return
		}
		s.state = StateQueued
		c.outgoing = append(c.outgoing, s)
		c.inbound = append(c.inbound, s)
		c.pump()
	})
	return rejectErr
}

// Release relinquishes the caller's handle to s (§3 "user surface").
// An unactivated stream is discarded immediately with no FIFO entry
// and no completion callback; an already-activated stream is still
// driven to completion internally, it just stops being a handle the
// caller holds on to.
func (c *Connection) Release(s *Stream) {
	c.ensureOnLoop(func() {
		s.released = true
	})
}

// WriteChunk enqueues chunk on s's chunk queue and resumes encoding if
// s was stalled on EncodeNeedMoreBody (§4.1 "Chunked back-pressure").
func (c *Connection) WriteChunk(s *Stream, chunk *ChunkDescriptor) error {
	if !s.IsChunked() {
		return ErrNotChunked
	}
	var err error
	c.ensureOnLoop(func() {
		if perr := s.chunks.Push(chunk); perr != nil {
			err = perr
			return
		}
		if len(c.outgoing) > 0 && c.outgoing[0] == s {
			c.pump()
		}
	})
	return err
}

// UpdateWindow grants n additional bytes of read-window credit, for s's
// own bookkeeping and the connection's aggregate transport credit
// (§4.3 "Read-window flow control").
func (c *Connection) UpdateWindow(s *Stream, n int) {
	if n <= 0 {
		return
	}
	c.ensureOnLoop(func() {
		s.window += int64(n)
		c.credit += int64(n)
		c.metrics.setWindow(c.credit)
		c.sink.WindowIncrement(n)
	})
}

// Close forces an immediate shutdown: every stream still outstanding
// completes with ConnectionClosed, and the sink is told to stop both
// directions.
func (c *Connection) Close() {
	c.ensureOnLoop(func() {
		c.fail(NewError(ConnectionClosed))
	})
}

// OnRead delivers a slice of bytes the sink received from the
// transport. After a successful protocol upgrade it forwards straight
// to the installed DownstreamHandler instead of the decoder.
func (c *Connection) OnRead(p []byte) {
	c.ensureOnLoop(func() {
		if c.shutDown {
			return
		}
		if c.switchedProtocols {
			if c.downstream != nil {
				c.downstream.HandleRead(p)
			}
			return
		}
		n, err := c.dec.Feed(p)
		if err != nil {
			c.fail(err)
			return
		}
		if c.switchedProtocols && c.downstream != nil {
			c.downstream.OnInstall(p[n:])
		}
	})
}

// OnConnectionClosed notifies the engine that the transport observed
// EOF or a hard close. A close-delimited body in flight is allowed to
// complete successfully first; everything else is cancelled.
func (c *Connection) OnConnectionClosed() {
	c.ensureOnLoop(func() {
		var errs *multierror.Error
		if err := c.dec.NotifyConnectionClosed(); err != nil {
			errs = multierror.Append(errs, err)
		}
		errs = multierror.Append(errs, NewError(ConnectionClosed))
		c.fail(errs.ErrorOrNil())
	})
}

// pump drains the outgoing FIFO through the encoder into sink-acquired
// write buffers until the sink has nothing left that can be encoded
// right now (chunk back-pressure) or the FIFO is empty.
func (c *Connection) pump() {
	for !c.shutDown && len(c.outgoing) > 0 {
		s := c.outgoing[0]
		if c.enc == nil {
			c.enc = NewEncoder(s.Request, &s.chunks)
			s.state = StateSendingHead
		}
		wb := c.sink.AcquireWrite()
		res, err := c.enc.EncodeInto(wb)
		if wb.Len() > 0 {
			c.metrics.bodyOut(wb.Len())
			c.sink.PushWrite(wb)
		} else {
			ReleaseWriteBuffer(wb)
		}
		if err != nil {
			c.outgoing = c.outgoing[1:]
			c.enc = nil
			c.completeStream(s, err)
			c.removeFromInbound(s)
			continue
		}
		switch res {
		case EncodeDone:
			c.outgoing = c.outgoing[1:]
			c.enc = nil
			s.state = StateAwaitingResponse
			s.sendDone = true
			if s.recvCompletePending {
				s.recvCompletePending = false
				c.completeStream(s, nil)
			}
		case EncodeNeedMoreBody:
			return
		case EncodeProgress:
			s.state = StateSendingBody
		}
	}
}

func (c *Connection) removeFromInbound(s *Stream) {
	for i, x := range c.inbound {
		if x == s {
			c.inbound = append(c.inbound[:i], c.inbound[i+1:]...)
			return
		}
	}
}

// completeStream fires s's completion exactly once (§6, §7): a stream
// already in a terminal state is left untouched.
func (c *Connection) completeStream(s *Stream, err error) {
	if s.terminal() {
		return
	}
	if s.IsChunked() {
		s.chunks.Drain(err)
	}
	if err == nil {
		s.state = StateComplete
	} else {
		s.state = StateCancelled
	}
	c.metrics.completed(CodeOf(err))
	if s.onComplete != nil {
		s.onComplete(s, err)
	}
}

// shutdownNow retires every stream still tracked by either FIFO with
// err and tells the sink both directions are done.
func (c *Connection) shutdownNow(err error) {
	if c.shutDown {
		return
	}
	c.shutDown = true
	c.newRequestsAllowed = false
	if c.enc != nil {
		c.enc.failChunk(err)
	}
	for _, s := range c.outgoing {
		c.completeStream(s, err)
	}
	for _, s := range c.inbound {
		c.completeStream(s, err)
	}
	c.outgoing = nil
	c.inbound = nil
	c.enc = nil
	c.sink.ShutdownRead()
	c.sink.ShutdownWrite()
}

func (c *Connection) fail(err error) {
	if c.shutDown {
		return
	}
	c.logger.Warn("h1c connection shutting down", zap.String("code", CodeOf(err).String()))
	c.shutdownErrs = multierror.Append(c.shutdownErrs, err)
	c.shutdownNow(err)
}

// doUpgrade hands the byte pipe to the installed DownstreamHandler and
// retires every other stream with SwitchedProtocols (§4.4).
func (c *Connection) doUpgrade(s *Stream) {
	c.switchedProtocols = true
	c.newRequestsAllowed = false

	others := make([]*Stream, 0, len(c.outgoing)+len(c.inbound))
	others = append(others, c.outgoing...)
	others = append(others, c.inbound...)
	if c.enc != nil && c.outgoing[0] != s {
		c.enc.failChunk(NewError(SwitchedProtocols))
	}
	c.outgoing = nil
	c.inbound = nil
	c.enc = nil

	for _, other := range others {
		if other == s {
			continue
		}
		c.completeStream(other, NewError(SwitchedProtocols))
	}

	if c.downstream == nil {
		c.fail(NewError(Protocol))
	}
}

// --- DecoderEvents ---

func (c *Connection) BeginResponse() (bool, error) {
	if len(c.inbound) == 0 {
		return false, NewError(Protocol)
	}
	return bytesEqualFold(c.inbound[0].Request.Method, "HEAD"), nil
}

func (c *Connection) OnStatus(code int, reason []byte) error {
	// A 1xx status line never calls BeginResponse (§4.2), so this is the
	// only point an informational response for a brand-new exchange
	// would otherwise run against an empty inbound FIFO.
	if len(c.inbound) == 0 {
		return NewError(Protocol)
	}
	cur := c.inbound[0]
	isInfo := code >= 100 && code < 200 && code != 101
	if isInfo {
		cur.Response.Informational = append(cur.Response.Informational, InformationalResponse{Status: code})
		cur.inInformational = true
		cur.currentInfoIdx = len(cur.Response.Informational) - 1
		return nil
	}
	cur.inInformational = false
	cur.Response.Status = code
	cur.Response.Reason = cloneBytes(reason)
	return nil
}

func (c *Connection) OnHeader(name, value []byte) error {
	cur := c.inbound[0]
	n, v := cloneBytes(name), cloneBytes(value)
	if cur.inInformational {
		cur.Response.Informational[cur.currentInfoIdx].Headers.Add(n, v)
	} else {
		cur.Response.Headers.Add(n, v)
	}
	if cur.onHeader != nil {
		if err := cur.onHeader(cur, n, v); err != nil {
			return WrapError(CallbackFailure, err, "on_header")
		}
	}
	return nil
}

func (c *Connection) OnHeadersDone(kind BlockKind) error { return nil }

func (c *Connection) OnBody(p []byte) error {
	cur := c.inbound[0]
	cur.Response.Body = append(cur.Response.Body, p...)
	c.metrics.bodyIn(len(p))
	cur.window -= int64(len(p))
	c.credit -= int64(len(p))
	c.metrics.setWindow(c.credit)

	decline := 0
	if cur.onBody != nil {
		n, err := cur.onBody(cur, p)
		if err != nil {
			return WrapError(CallbackFailure, err, "on_body")
		}
		decline = n
	}
	reopen := len(p) - decline
	if reopen <= 0 {
		return nil
	}
	cur.window += int64(reopen)
	c.credit += int64(reopen)
	c.metrics.setWindow(c.credit)
	c.sink.WindowIncrement(reopen)
	return nil
}

func (c *Connection) OnTrailer(name, value []byte) error {
	cur := c.inbound[0]
	cur.Response.Trailers.Add(cloneBytes(name), cloneBytes(value))
	return nil
}

func (c *Connection) OnComplete() error {
	if len(c.inbound) == 0 {
		return NewError(Protocol)
	}
	cur := c.inbound[0]
	c.inbound = c.inbound[1:]

	connClose := cur.Response.wantsConnectionClose() || cur.Request.wantsConnectionClose()
	upgrade := cur.Response.isUpgrade() && cur.Request.WantUpgrade

	if connClose {
		c.closingAfterResponse = true
		c.newRequestsAllowed = false
	}

	// A response racing ahead of a still-sending chunked request (cur
	// is still in c.outgoing) must not complete the stream yet: it
	// stays live so later WriteChunk/pump activity keeps going, and
	// pump's EncodeDone branch fires the completion once sending
	// actually finishes (§3, §8 "does not complete the stream until
	// both directions finish").
	if cur.sendDone {
		c.completeStream(cur, nil)
	} else {
		cur.recvCompletePending = true
	}

	switch {
	case upgrade:
		c.doUpgrade(cur)
	case connClose:
		c.shutdownNow(NewError(ConnectionClosed))
	}
	return nil
}

func (c *Connection) ShouldStop() bool { return c.switchedProtocols || c.shutDown }
