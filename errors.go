package h1c

import (
	"github.com/pkg/errors"
)

// Code is a stable, programmatically dispatchable error code (§6, §7).
type Code int

const (
	// Success is the zero value: no error.
	Success Code = iota
	// Protocol marks a decoder grammar violation or any other
	// connection-wide fatal condition.
	Protocol
	// ConnectionClosed marks a stream that never started, or was
	// draining, because the connection is shut or closing.
	ConnectionClosed
	// SwitchedProtocols marks a stream that was still queued or
	// in-flight when the connection upgraded to a downstream protocol.
	SwitchedProtocols
	// OutgoingStreamLengthIncorrect marks a request whose body producer
	// under- or over-delivered relative to its declared length.
	OutgoingStreamLengthIncorrect
	// CallbackFailure marks a user callback (on_header, on_body, ...)
	// that returned an error; the opaque cause is preserved.
	CallbackFailure
)

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case Protocol:
		return "protocol"
	case ConnectionClosed:
		return "connection_closed"
	case SwitchedProtocols:
		return "switched_protocols"
	case OutgoingStreamLengthIncorrect:
		return "outgoing_stream_length_incorrect"
	case CallbackFailure:
		return "callback_failure"
	default:
		return "unknown"
	}
}

// Error is the error value routed to a stream's completion callback and
// to channel shutdown. It carries the stable Code plus, where available,
// the underlying cause via Unwrap.
type Error struct {
	Code  Code
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Code.String() + ": " + e.cause.Error()
	}
	return e.Code.String()
}

// Unwrap allows errors.Is/errors.As to reach the underlying cause.
// *Error has no Cause method, so pkg/errors.Cause stops at the *Error.
func (e *Error) Unwrap() error { return e.cause }

// NewError builds a stable Error for the given code with no cause.
func NewError(code Code) *Error {
	return &Error{Code: code}
}

// WrapError builds a stable Error for the given code, wrapping cause
// with pkg/errors so its stack and message survive for diagnostics.
func WrapError(code Code, cause error, msg string) *Error {
	if cause == nil {
		return NewError(code)
	}
	return &Error{Code: code, cause: errors.Wrap(cause, msg)}
}

// CodeOf extracts the stable Code from err, defaulting to Protocol for
// any error that is not (and does not wrap) an *Error, including the
// package's own plain sentinels such as ErrChunkAfterTerminator.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Protocol
}

var (
	// ErrChunkAfterTerminator is returned synchronously by WriteChunk
	// when the caller submits a chunk after the 0-size terminator has
	// already been enqueued (§9 Open Question: treated as a programmer
	// error, not silently dropped).
	ErrChunkAfterTerminator = errors.New("h1c: chunk written after terminating 0-size chunk")

	// ErrNotChunked is returned by WriteChunk when the stream's request
	// does not carry Transfer-Encoding: chunked.
	ErrNotChunked = errors.New("h1c: write_chunk called on a non-chunked stream")

	// errNeedMore is an internal sentinel meaning "not enough bytes
	// buffered yet to make parsing progress"; never escapes the package.
	errNeedMore = errors.New("h1c: need more data")
)
