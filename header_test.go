package h1c

import "testing"

func TestHeaderListGetCaseInsensitive(t *testing.T) {
	var hl HeaderList
	hl.AddString("Content-Type", "text/plain")
	v, ok := hl.Get("content-type")
	if !ok || string(v) != "text/plain" {
		t.Fatalf("Get = %q, %v; want text/plain, true", v, ok)
	}
}

func TestHeaderListPreservesOrderAndDuplicates(t *testing.T) {
	var hl HeaderList
	hl.AddString("X-A", "1")
	hl.AddString("X-A", "2")
	if hl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", hl.Len())
	}
	if string(hl.At(0).Value) != "1" || string(hl.At(1).Value) != "2" {
		t.Fatalf("duplicate headers not preserved in order: %+v", hl)
	}
}

func TestHeaderListHasToken(t *testing.T) {
	var hl HeaderList
	hl.AddString("Connection", "keep-alive, Upgrade")
	if !hl.HasToken("Connection", "upgrade") {
		t.Fatalf("expected case-insensitive token match for upgrade")
	}
	if hl.HasToken("Connection", "close") {
		t.Fatalf("unexpected token match for close")
	}
}

func TestParseStatusLine(t *testing.T) {
	code, reason, consumed, err := parseStatusLine([]byte("HTTP/1.1 404 Not Found\r\nX"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if code != 404 {
		t.Fatalf("code = %d, want 404", code)
	}
	if string(reason) != "Not Found" {
		t.Fatalf("reason = %q, want %q", reason, "Not Found")
	}
	if consumed != len("HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("consumed = %d, want %d", consumed, len("HTTP/1.1 404 Not Found\r\n"))
	}
}

func TestParseStatusLineNeedsMore(t *testing.T) {
	_, _, _, err := parseStatusLine([]byte("HTTP/1.1 200 "))
	if err != errNeedMore {
		t.Fatalf("got %v, want errNeedMore", err)
	}
}

func TestFindHeaderBlockEnd(t *testing.T) {
	n, err := findHeaderBlockEnd([]byte("A: 1\r\nB: 2\r\n\r\nbody"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if n != len("A: 1\r\nB: 2\r\n\r\n") {
		t.Fatalf("n = %d, want %d", n, len("A: 1\r\nB: 2\r\n\r\n"))
	}
}

func TestFindHeaderBlockEndNeedsMore(t *testing.T) {
	_, err := findHeaderBlockEnd([]byte("A: 1\r\nB: 2\r\n"))
	if err != errNeedMore {
		t.Fatalf("got %v, want errNeedMore", err)
	}
}

func TestHeaderLineScanner(t *testing.T) {
	s := headerLineScanner{b: []byte("A: 1\r\nB:2\r\n")}
	name, value, ok := s.next()
	if !ok || string(name) != "A" || string(value) != "1" {
		t.Fatalf("first header = %q:%q, %v", name, value, ok)
	}
	name, value, ok = s.next()
	if !ok || string(name) != "B" || string(value) != "2" {
		t.Fatalf("second header = %q:%q, %v", name, value, ok)
	}
	_, _, ok = s.next()
	if ok {
		t.Fatalf("expected scanner to be exhausted")
	}
	if s.err != nil {
		t.Fatalf("unexpected scanner error: %s", s.err)
	}
}
