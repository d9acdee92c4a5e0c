package h1c

import (
	"bytes"
	"testing"
)

func drainEncoder(t *testing.T, e *Encoder) []byte {
	t.Helper()
	var out []byte
	for i := 0; i < 10000; i++ {
		wb := AcquireWriteBuffer(16)
		res, err := e.EncodeInto(wb)
		if err != nil {
			t.Fatalf("unexpected encode error: %s", err)
		}
		out = append(out, wb.Bytes()...)
		ReleaseWriteBuffer(wb)
		if res == EncodeDone {
			return out
		}
		if res == EncodeNeedMoreBody {
			t.Fatalf("encoder stalled on EncodeNeedMoreBody with no chunks pending")
		}
	}
	t.Fatalf("encoder did not finish within the iteration budget")
	return nil
}

func TestEncoderGETNoBody(t *testing.T) {
	req := NewRequest("GET", "/")
	req.Headers.AddString("Host", "example.com")
	cq := &ChunkQueue{}
	e := NewEncoder(req, cq)

	got := drainEncoder(t, e)
	want := "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !e.Done() {
		t.Fatalf("encoder not marked done")
	}
}

func TestEncoderContentLengthBody(t *testing.T) {
	req := NewRequest("POST", "/submit")
	req.Headers.AddString("Host", "example.com")
	req.Headers.AddString("Content-Length", "5")
	req.Body = NewBytesBodyProducer([]byte("hello"))
	cq := &ChunkQueue{}
	e := NewEncoder(req, cq)

	got := drainEncoder(t, e)
	want := "POST /submit HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEncoderContentLengthUnderrun(t *testing.T) {
	req := NewRequest("POST", "/submit")
	req.Headers.AddString("Content-Length", "10")
	req.Body = NewBytesBodyProducer([]byte("short"))
	cq := &ChunkQueue{}
	e := NewEncoder(req, cq)

	for i := 0; i < 100; i++ {
		wb := AcquireWriteBuffer(4096)
		_, err := e.EncodeInto(wb)
		ReleaseWriteBuffer(wb)
		if err != nil {
			if CodeOf(err) != OutgoingStreamLengthIncorrect {
				t.Fatalf("got code %v, want OutgoingStreamLengthIncorrect", CodeOf(err))
			}
			return
		}
	}
	t.Fatalf("expected a length-mismatch error")
}

func TestEncoderContentLengthOverrunViaReaderBodyProducer(t *testing.T) {
	req := NewRequest("POST", "/submit")
	req.Headers.AddString("Content-Length", "5")
	req.Body = NewReaderBodyProducer(bytes.NewReader([]byte("hello world")), 5, true)
	cq := &ChunkQueue{}
	e := NewEncoder(req, cq)

	for i := 0; i < 100; i++ {
		wb := AcquireWriteBuffer(4096)
		_, err := e.EncodeInto(wb)
		ReleaseWriteBuffer(wb)
		if err != nil {
			if CodeOf(err) != OutgoingStreamLengthIncorrect {
				t.Fatalf("got code %v, want OutgoingStreamLengthIncorrect", CodeOf(err))
			}
			return
		}
	}
	t.Fatalf("expected an overrun length-mismatch error")
}

func TestEncoderChunkedWithExtensions(t *testing.T) {
	req := NewRequest("PUT", "/stream")
	req.Headers.AddString("Transfer-Encoding", "chunked")
	cq := &ChunkQueue{}
	if err := cq.Push(&ChunkDescriptor{
		Producer:     NewBytesBodyProducer([]byte("abc")),
		DeclaredSize: 3,
		Extensions:   []ChunkExtension{{Key: []byte("ik"), Value: []byte("iv")}},
	}); err != nil {
		t.Fatalf("push chunk 1: %s", err)
	}
	if err := cq.Push(&ChunkDescriptor{DeclaredSize: 0}); err != nil {
		t.Fatalf("push terminator: %s", err)
	}

	e := NewEncoder(req, cq)
	got := drainEncoder(t, e)
	want := "PUT /stream HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"3;ik=iv\r\nabc\r\n0\r\n\r\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEncoderChunkedBackpressure(t *testing.T) {
	req := NewRequest("PUT", "/stream")
	req.Headers.AddString("Transfer-Encoding", "chunked")
	cq := &ChunkQueue{}
	e := NewEncoder(req, cq)

	wb := AcquireWriteBuffer(4096)
	res, err := e.EncodeInto(wb)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res != EncodeNeedMoreBody {
		t.Fatalf("got %v, want EncodeNeedMoreBody", res)
	}
	head := append([]byte(nil), wb.Bytes()...)
	ReleaseWriteBuffer(wb)
	if !bytes.HasSuffix(head, []byte("\r\n\r\n")) {
		t.Fatalf("head not fully written before stalling: %q", head)
	}

	if err := cq.Push(&ChunkDescriptor{DeclaredSize: 0}); err != nil {
		t.Fatalf("push terminator: %s", err)
	}
	wb2 := AcquireWriteBuffer(4096)
	res, err = e.EncodeInto(wb2)
	if err != nil {
		t.Fatalf("unexpected error after terminator: %s", err)
	}
	if res != EncodeDone {
		t.Fatalf("got %v, want EncodeDone", res)
	}
	if string(wb2.Bytes()) != "0\r\n\r\n" {
		t.Fatalf("got %q", wb2.Bytes())
	}
	ReleaseWriteBuffer(wb2)
}

func TestEncoderOneByteAtATimeWriteBuffer(t *testing.T) {
	req := NewRequest("GET", "/x")
	req.Headers.AddString("Host", "h")
	cq := &ChunkQueue{}
	e := NewEncoder(req, cq)

	var out []byte
	for i := 0; i < 10000; i++ {
		wb := AcquireWriteBuffer(1)
		res, err := e.EncodeInto(wb)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		out = append(out, wb.Bytes()...)
		ReleaseWriteBuffer(wb)
		if res == EncodeDone {
			want := "GET /x HTTP/1.1\r\nHost: h\r\n\r\n"
			if string(out) != want {
				t.Fatalf("got %q, want %q", out, want)
			}
			return
		}
	}
	t.Fatalf("encoder did not finish within the iteration budget")
}
