package h1c

import (
	"errors"
)

// Grounded on valyala-fasthttp/bytesconv.go's parseUintBuf/readHexInt/
// writeHexInt: byte-level integer parsing/formatting without strconv,
// matching the teacher's own zero-allocation idiom for the wire's
// decimal (status code, Content-Length) and hex (chunk size) integers.

var (
	errEmptyInt            = errors.New("h1c: empty integer")
	errUnexpectedFirstChar = errors.New("h1c: unexpected first char, expected 0-9")
	errTooLongInt          = errors.New("h1c: integer too long")

	errEmptyHexNum    = errors.New("h1c: empty hex number")
	errTooLargeHexNum = errors.New("h1c: hex number too large")

	errShortStatusLine = errors.New("h1c: status line too short")
	errBadStatusLine   = errors.New("h1c: malformed status line")
	errMalformedHeader = errors.New("h1c: malformed header line")
)

const maxHexIntChars = 16 // enough for a 64-bit chunk size

// parseUintPrefix parses a decimal uint prefix of b, returning the
// value and the number of bytes consumed (the remainder, if any, is
// left for the caller to interpret, e.g. the status-line's trailing
// reason phrase).
func parseUintPrefix(b []byte) (int, int, error) {
	n := len(b)
	if n == 0 {
		return -1, 0, errEmptyInt
	}
	v := 0
	for i := 0; i < n; i++ {
		c := b[i]
		k := int(c) - '0'
		if k < 0 || k > 9 {
			if i == 0 {
				return -1, i, errUnexpectedFirstChar
			}
			return v, i, nil
		}
		vNew := 10*v + k
		if vNew < v {
			return -1, i, errTooLongInt
		}
		v = vNew
	}
	return v, n, nil
}

// parseContentLength parses a full Content-Length header value.
func parseContentLength(b []byte) (int, error) {
	v, n, err := parseUintPrefix(b)
	if err != nil {
		return -1, err
	}
	if n != len(b) {
		return -1, errBadStatusLine
	}
	return v, nil
}

var hex2intTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 16
	}
	for i := '0'; i <= '9'; i++ {
		t[i] = byte(i - '0')
	}
	for i := 'a'; i <= 'f'; i++ {
		t[i] = byte(i-'a') + 10
	}
	for i := 'A'; i <= 'F'; i++ {
		t[i] = byte(i-'A') + 10
	}
	return t
}()

// parseHexUint parses a lowercase-or-uppercase hex chunk-size prefix,
// returning the value and bytes consumed (everything after the size is
// left for the caller — chunk extensions start right where this stops).
func parseHexUint(b []byte) (n int, consumed int, err error) {
	if len(b) == 0 {
		return 0, 0, errEmptyHexNum
	}
	var v int
	i := 0
	for ; i < len(b); i++ {
		k := hex2intTable[b[i]]
		if k == 16 {
			break
		}
		if i >= maxHexIntChars {
			return 0, 0, errTooLargeHexNum
		}
		v = (v << 4) | int(k)
	}
	if i == 0 {
		return 0, 0, errEmptyHexNum
	}
	return v, i, nil
}

const lowerhex = "0123456789abcdef"

// appendHexUint appends the lowercase hex representation of n to dst,
// with no leading zeros (except "0" itself) — the chunk-size grammar
// from spec §4.1 ("lowercase ASCII, no leading zeros").
func appendHexUint(dst []byte, n int) []byte {
	if n == 0 {
		return append(dst, '0')
	}
	var buf [maxHexIntChars]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = lowerhex[n&0xf]
		n >>= 4
	}
	return append(dst, buf[i:]...)
}
