package h1c

import "github.com/google/uuid"

// StreamState is the per-exchange lifecycle (§3).
type StreamState int

const (
	StateUnactivated StreamState = iota
	StateQueued
	StateSendingHead
	StateSendingBody
	StateAwaitingResponse
	StateReceiving
	StateComplete
	StateCancelled
)

// CompletionFunc is invoked exactly once, when a stream reaches a
// terminal state (§6, §7). A nil err means SUCCESS.
type CompletionFunc func(s *Stream, err error)

// BodyCallback is invoked once per delivered body chunk (§4.3
// "Read-window flow control"). Returning a positive decline value tells
// the connection to withhold that many bytes from the window
// re-opening for this call.
type BodyCallback func(s *Stream, p []byte) (declineWindow int, err error)

// HeaderCallback is invoked once per response header (main or
// informational).
type HeaderCallback func(s *Stream, name, value []byte) error

// Stream is one request/response exchange over the connection (§3).
// Grounded on valyala-fasthttp/client.go's per-request bookkeeping
// (HostClient.Do's request/response pairing), generalized into the
// explicit unactivated→...→complete/cancelled state machine spec.md
// names instead of a single blocking call.
type Stream struct {
	ID uuid.UUID

	Request  *Request
	Response Response

	state StreamState

	chunks ChunkQueue

	window int64 // remaining per-stream read credit

	onComplete CompletionFunc
	onBody     BodyCallback
	onHeader   HeaderCallback

	released bool
	conn     *Connection

	// sendDone is true once the encoder has reported EncodeDone for
	// this stream's request. recvCompletePending is true when the
	// decoder has already reported OnComplete for this stream's
	// response while sendDone was still false (§3 "a stream on the
	// inbound FIFO has had its entire request emitted" — a response
	// racing ahead of a still-sending chunked request must not
	// complete the stream until both directions finish, §8).
	sendDone            bool
	recvCompletePending bool

	// currentInfoIdx and inInformational record which header list the
	// decoder's OnHeader events route into while this stream is the
	// decoder's subject.
	currentInfoIdx int
	inInformational bool
}

// State reports the stream's current lifecycle state.
func (s *Stream) State() StreamState { return s.state }

// IsChunked reports whether this stream's request carries
// Transfer-Encoding: chunked.
func (s *Stream) IsChunked() bool { return s.Request.isChunked() }

func (s *Stream) terminal() bool {
	return s.state == StateComplete || s.state == StateCancelled
}
