package h1c

// Request is the outgoing request message (§3). Method and Path are
// copied to the wire verbatim (§4.1, §6 "Case preservation"); Headers
// bytes and order are preserved exactly as supplied, with no
// normalization or de-duplication.
type Request struct {
	Method  []byte
	Path    []byte
	Headers HeaderList

	// Body is nil for a request with no body. Exactly one of these
	// framings applies, decided by the headers the caller set:
	//   - neither Content-Length nor Transfer-Encoding: chunked is
	//     present and Body is nil -> no body bytes are sent.
	//   - Content-Length is present -> Body is read to EOF and its
	//     total must equal the declared length (§4.1).
	//   - Transfer-Encoding: chunked is present -> Body is ignored;
	//     chunks are supplied via Connection.WriteChunk instead (§3).
	Body BodyProducer

	// WantUpgrade, when true, marks this request as a protocol-upgrade
	// attempt (§4.4): a 101 response completes it successfully and
	// latches switched-protocols instead of retiring it normally. The
	// caller is still responsible for setting the Connection/Upgrade
	// headers themselves (§6 "Case preservation" — h1c never rewrites
	// header bytes on the caller's behalf).
	WantUpgrade bool
}

// NewRequest builds a Request with no headers and no body.
func NewRequest(method, path string) *Request {
	return &Request{Method: []byte(method), Path: []byte(path)}
}

func (r *Request) isChunked() bool {
	return r.Headers.HasToken(strTE, strChunked)
}

func (r *Request) contentLength() (int64, bool) {
	v, ok := r.Headers.Get(strCL)
	if !ok {
		return 0, false
	}
	n, err := parseContentLength(v)
	if err != nil {
		return 0, false
	}
	return int64(n), true
}

func (r *Request) wantsConnectionClose() bool {
	return r.Headers.HasToken(strConnection, strClose)
}
