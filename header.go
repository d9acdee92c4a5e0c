package h1c

import (
	"bytes"
)

// Header is a single name/value pair, bytes preserved verbatim for the
// wire (§3, §4.1 "No normalization or de-duplication; order and bytes
// preserved verbatim").
type Header struct {
	Name  []byte
	Value []byte
}

// HeaderList is an ordered list of headers. Semantic lookups
// (Get, Has, HasToken) are case-insensitive;
// the stored bytes are never rewritten.
type HeaderList struct {
	items []Header
}

// Add appends a header, preserving the caller's bytes and order.
func (hl *HeaderList) Add(name, value []byte) {
	hl.items = append(hl.items, Header{Name: name, Value: value})
}

// AddString is a convenience wrapper around Add for string literals.
func (hl *HeaderList) AddString(name, value string) {
	hl.Add([]byte(name), []byte(value))
}

// Len reports the number of headers.
func (hl *HeaderList) Len() int { return len(hl.items) }

// At returns the header at index i.
func (hl *HeaderList) At(i int) Header { return hl.items[i] }

// Reset clears the list for reuse.
func (hl *HeaderList) Reset() { hl.items = hl.items[:0] }

// Get returns the value of the first header matching name
// case-insensitively, and whether one was found.
func (hl *HeaderList) Get(name string) ([]byte, bool) {
	for _, h := range hl.items {
		if bytesEqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is present, case-insensitively.
func (hl *HeaderList) Has(name string) bool {
	_, ok := hl.Get(name)
	return ok
}

// HasToken reports whether name's value contains token as a
// comma-separated, case-insensitive token (used for Connection: close,
// Connection: upgrade, TE lists, etc).
func (hl *HeaderList) HasToken(name, token string) bool {
	v, ok := hl.Get(name)
	if !ok {
		return false
	}
	for _, part := range bytes.Split(v, []byte(",")) {
		part = bytes.TrimSpace(part)
		if bytesEqualFold(part, token) {
			return true
		}
	}
	return false
}

func bytesEqualFold(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := 0; i < len(b); i++ {
		c := b[i]
		d := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if 'A' <= d && d <= 'Z' {
			d += 'a' - 'A'
		}
		if c != d {
			return false
		}
	}
	return true
}

var (
	strCRLF        = []byte("\r\n")
	strColon       = []byte(":")
	strConnection  = "Connection"
	strClose       = "close"
	strTE          = "Transfer-Encoding"
	strChunked     = "chunked"
	strCL          = "Content-Length"
	strHTTP11Proto = []byte("HTTP/1.1")
)

// nextLine splits b on the first '\n', trimming an optional trailing
// '\r'. Grounded on valyala-fasthttp/header.go's nextLine: the
// resumability primitive every status/header line parse is built on.
// Returns errNeedMore if no '\n' is buffered yet.
func nextLine(b []byte) (line, rest []byte, err error) {
	n := bytes.IndexByte(b, '\n')
	if n < 0 {
		return nil, nil, errNeedMore
	}
	end := n
	if end > 0 && b[end-1] == '\r' {
		end--
	}
	return b[:end], b[n+1:], nil
}

// parseStatusLine parses "HTTP/1.1 SP code SP reason CRLF" and returns
// the status code, reason phrase, and the number of bytes consumed.
// Grounded on valyala-fasthttp/header.go's (*ResponseHeader).parseFirstLine.
func parseStatusLine(buf []byte) (code int, reason []byte, consumed int, err error) {
	line, rest, err := nextLine(buf)
	if err != nil {
		return 0, nil, 0, err
	}
	n := bytes.IndexByte(line, ' ')
	if n < 0 {
		return 0, nil, 0, WrapError(Protocol, errShortStatusLine, "status line")
	}
	b := line[n+1:]
	code, n2, err := parseUintPrefix(b)
	if err != nil {
		return 0, nil, 0, WrapError(Protocol, err, "status code")
	}
	if n2 < len(b) && b[n2] != ' ' {
		return 0, nil, 0, WrapError(Protocol, errBadStatusLine, "status code")
	}
	if n2+1 < len(b) {
		reason = b[n2+1:]
	}
	return code, reason, len(buf) - len(rest), nil
}

// headerLineScanner walks CRLF-terminated header lines out of a
// fully-buffered region (the decoder only invokes it once the blank
// CRLF terminating the header block has actually been seen, exactly as
// valyala-fasthttp/header.go's headerScanner does against readRawHeaders'
// output).
type headerLineScanner struct {
	b   []byte
	err error
}

// next advances to the next header, returning false at the terminating
// blank line or on error (check s.err).
func (s *headerLineScanner) next() (name, value []byte, ok bool) {
	if len(s.b) == 0 {
		return nil, nil, false
	}
	if bytes.HasPrefix(s.b, strCRLF) || (len(s.b) == 1 && s.b[0] == '\n') {
		return nil, nil, false
	}
	line, rest, err := nextLine(s.b)
	if err != nil {
		s.err = err
		return nil, nil, false
	}
	s.b = rest
	// RFC 7230 obs-fold continuation lines (leading space/tab) are not
	// supported; spec.md's grammar doesn't require them and the teacher
	// treats a leading space on a header line as invalid too.
	k, v, found := bytes.Cut(line, strColon)
	if !found {
		s.err = WrapError(Protocol, errMalformedHeader, "header line")
		return nil, nil, false
	}
	v = bytes.TrimLeft(v, " \t")
	return k, v, true
}

// findHeaderBlockEnd reports the length of the header block (up to and
// including the terminating blank CRLF) if it is fully buffered, or
// errNeedMore otherwise. Grounded on readRawHeaders.
func findHeaderBlockEnd(buf []byte) (int, error) {
	// An empty header block is just the blank line itself.
	if bytes.HasPrefix(buf, strCRLF) {
		return 2, nil
	}
	// Tolerate bare-\n line endings.
	if bytes.HasPrefix(buf, []byte("\n")) {
		return 1, nil
	}
	idx := bytes.Index(buf, []byte("\r\n\r\n"))
	if idx >= 0 {
		return idx + 4, nil
	}
	if idx2 := bytes.Index(buf, []byte("\n\n")); idx2 >= 0 {
		return idx2 + 2, nil
	}
	return 0, errNeedMore
}
