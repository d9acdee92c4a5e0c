package h1c

// InformationalResponse captures one 1xx status block preceding the
// final response (§3, §4.2 "Informational responses").
type InformationalResponse struct {
	Status  int
	Headers HeaderList
}

// Response is the response accumulator (§3): status, headers, and body
// bytes as delivered by the decoder, plus any 1xx responses seen first.
type Response struct {
	Status  int
	Reason  []byte
	Headers HeaderList
	Body    []byte

	Informational []InformationalResponse

	// Trailers holds trailer headers parsed after a chunked body's
	// terminating 0-size chunk (§4.2 grammar; see SPEC_FULL.md §5).
	Trailers HeaderList
}

func (r *Response) reset() {
	r.Status = 0
	r.Reason = nil
	r.Headers.Reset()
	r.Body = r.Body[:0]
	r.Informational = r.Informational[:0]
	r.Trailers.Reset()
}

func (r *Response) wantsConnectionClose() bool {
	return r.Headers.HasToken(strConnection, strClose)
}

func (r *Response) isUpgrade() bool { return r.Status == 101 }

// noBody reports whether this status, for the given request method,
// carries zero body bytes regardless of framing headers (§4.2 grammar:
// HEAD, 1xx, 204, 304). Also applied per SPEC_FULL.md §5 when the
// request method is HEAD even if Content-Length claims otherwise.
func noBody(status int, requestIsHead bool) bool {
	if requestIsHead {
		return true
	}
	if status >= 100 && status < 200 {
		return true
	}
	return status == 204 || status == 304
}
