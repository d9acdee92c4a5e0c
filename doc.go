/*
Package h1c implements an HTTP/1.1 client connection engine: a single
full-duplex byte pipe that multiplexes a queue of client-originated
request/response exchanges onto one transport channel.

The engine owns three tightly coupled pieces:

  - Encoder: serializes one request at a time into caller-supplied
    write buffers, supporting Content-Length-framed and chunked bodies
    whose chunks may be supplied asynchronously after the request has
    begun.
  - Decoder: parses HTTP/1.1 responses from arbitrarily sliced input,
    preserving exact byte semantics across 1xx informational responses,
    chunked and framed bodies, and HEAD/204/304 no-body rules.
  - Connection: a stream scheduler tying the two together — a pipelined
    FIFO of outgoing streams, a FIFO of awaited responses, read-window
    flow control, Connection: close handling, and hand-off to a
    downstream protocol after a 101 Switching Protocols response.

h1c never touches a socket, a timer, or a goroutine scheduler itself. It
is driven entirely by its caller through the ByteSink contract: acquire a
write buffer, push it, hand the engine a read slice, and pump its single
event loop. This keeps the engine usable from any transport (TCP, TLS,
an in-memory pipe, a test double) and any threading model, so long as
state mutation is confined to one loop thread at a time — see Connection
and TaskPoster.
*/
package h1c
