package h1c

// EncodeResult is returned by Encoder.EncodeInto (§4.1 "Public
// contract").
type EncodeResult int

const (
	// EncodeProgress means some bytes were written but the request is
	// not yet fully emitted; the caller should supply another write
	// buffer when one becomes available.
	EncodeProgress EncodeResult = iota
	// EncodeDone means the request (head, body, and any chunk
	// terminator) has been fully emitted.
	EncodeDone
	// EncodeNeedMoreBody means nothing can be emitted right now: the
	// chunked stream's chunk queue is empty and the terminator hasn't
	// arrived yet (§4.1 "Chunked back-pressure"), or a body or chunk
	// producer returned no bytes without being done. The caller should
	// stop calling EncodeInto for this stream until more body data is
	// available (for a chunked stream, until a chunk is submitted).
	EncodeNeedMoreBody
)

type encoderPhase int

const (
	phaseHead encoderPhase = iota
	phaseBodyCL
	phaseBodyChunked
	phaseDone
)

type headSubPhase int

const (
	hMethod headSubPhase = iota
	hSP1
	hPath
	hSP2
	hProto
	hCRLF1
	hHeaderName
	hColonSp
	hHeaderValue
	hHeaderCRLF
	hFinalCRLF
	hHeadDone
)

type chunkSubPhase int

const (
	csStart chunkSubPhase = iota
	csHexSize
	csExtSemi
	csExtKey
	csExtEq
	csExtValue
	csLineCRLF
	csPayload
	csPayloadCRLF
)

var (
	spByte    = []byte(" ")
	colonSp   = []byte(": ")
	semiByte  = []byte(";")
	eqByte    = []byte("=")
	crlfBytes = []byte("\r\n")
)

// Encoder serializes one request at a time into caller-supplied write
// buffers (§4.1). It never blocks: EncodeInto consumes exactly as many
// source bytes as fit and returns. Grounded on valyala-fasthttp's
// request-head write loop (client.go) and header.go's verbatim-bytes
// header writer, generalized from a blocking bufio.Writer target to a
// cursor-resumable, bounded WriteBuffer target.
type Encoder struct {
	req     *Request
	chunked bool

	declaredLen    int64
	hasDeclaredLen bool
	producedLen    int64

	phase encoderPhase

	headSub   headSubPhase
	headerIdx int
	segOff    int

	chunkQueue           *ChunkQueue
	chunkSub             chunkSubPhase
	curChunk             *ChunkDescriptor
	chunkHexBuf          [maxHexIntChars]byte
	chunkHexLen          int
	extIdx               int
	chunkPayloadProduced int64

	scratch [4096]byte
}

// NewEncoder prepares an encoder for req, whose chunk queue (if the
// request is chunked) is cq.
func NewEncoder(req *Request, cq *ChunkQueue) *Encoder {
	e := &Encoder{req: req, chunkQueue: cq}
	e.chunked = req.isChunked()
	if !e.chunked {
		if n, ok := req.contentLength(); ok {
			e.declaredLen, e.hasDeclaredLen = n, true
		}
	}
	return e
}

// Done reports whether the request has been fully emitted.
func (e *Encoder) Done() bool { return e.phase == phaseDone }

func writeSeg(wb *WriteBuffer, seg []byte, off *int) bool {
	if *off >= len(seg) {
		return true
	}
	n := wb.Append(seg[*off:])
	*off += n
	return *off >= len(seg)
}

// EncodeInto is the encoder's public contract (§4.1).
func (e *Encoder) EncodeInto(wb *WriteBuffer) (EncodeResult, error) {
	for {
		switch e.phase {
		case phaseHead:
			done, err := e.encodeHead(wb)
			if err != nil {
				return EncodeProgress, err
			}
			if !done {
				return EncodeProgress, nil
			}
			switch {
			case e.chunked:
				e.phase = phaseBodyChunked
			case e.hasDeclaredLen && e.declaredLen > 0:
				e.phase = phaseBodyCL
			default:
				e.phase = phaseDone
				return EncodeDone, nil
			}
			if wb.Full() {
				return EncodeProgress, nil
			}
		case phaseBodyCL:
			return e.encodeBodyCL(wb)
		case phaseBodyChunked:
			return e.encodeBodyChunked(wb)
		case phaseDone:
			return EncodeDone, nil
		}
	}
}

func (e *Encoder) encodeHead(wb *WriteBuffer) (bool, error) {
	for !wb.Full() {
		switch e.headSub {
		case hMethod:
			if !writeSeg(wb, e.req.Method, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hSP1
		case hSP1:
			if !writeSeg(wb, spByte, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hPath
		case hPath:
			if !writeSeg(wb, e.req.Path, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hSP2
		case hSP2:
			if !writeSeg(wb, spByte, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hProto
		case hProto:
			if !writeSeg(wb, strHTTP11Proto, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hCRLF1
		case hCRLF1:
			if !writeSeg(wb, crlfBytes, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			if e.headerIdx < e.req.Headers.Len() {
				e.headSub = hHeaderName
			} else {
				e.headSub = hFinalCRLF
			}
		case hHeaderName:
			h := e.req.Headers.At(e.headerIdx)
			if !writeSeg(wb, h.Name, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hColonSp
		case hColonSp:
			if !writeSeg(wb, colonSp, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hHeaderValue
		case hHeaderValue:
			h := e.req.Headers.At(e.headerIdx)
			if !writeSeg(wb, h.Value, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hHeaderCRLF
		case hHeaderCRLF:
			if !writeSeg(wb, crlfBytes, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headerIdx++
			if e.headerIdx < e.req.Headers.Len() {
				e.headSub = hHeaderName
			} else {
				e.headSub = hFinalCRLF
			}
		case hFinalCRLF:
			if !writeSeg(wb, crlfBytes, &e.segOff) {
				return false, nil
			}
			e.segOff = 0
			e.headSub = hHeadDone
		case hHeadDone:
			return true, nil
		}
	}
	return e.headSub == hHeadDone, nil
}

func (e *Encoder) failLength() error {
	return NewError(OutgoingStreamLengthIncorrect)
}

func (e *Encoder) encodeBodyCL(wb *WriteBuffer) (EncodeResult, error) {
	for e.producedLen < e.declaredLen && !wb.Full() {
		remaining := e.declaredLen - e.producedLen
		n := int64(wb.Avail())
		if n > remaining {
			n = remaining
		}
		if n > int64(len(e.scratch)) {
			n = int64(len(e.scratch))
		}
		rn, err := e.req.Body.Read(e.scratch[:n])
		if err != nil {
			return EncodeProgress, WrapError(Protocol, err, "outgoing body read")
		}
		if rn > 0 {
			wb.Append(e.scratch[:rn])
			e.producedLen += int64(rn)
			continue
		}
		if e.req.Body.Done() {
			break
		}
		return EncodeNeedMoreBody, nil
	}
	if e.producedLen < e.declaredLen {
		if e.req.Body.Done() {
			return EncodeProgress, e.failLength()
		}
		return EncodeProgress, nil
	}
	if !e.req.Body.Done() {
		return EncodeProgress, e.failLength()
	}
	e.phase = phaseDone
	return EncodeDone, nil
}

func (e *Encoder) beginChunk(c *ChunkDescriptor) {
	e.curChunk = c
	e.chunkPayloadProduced = 0
	e.extIdx = 0
	e.segOff = 0
	buf := appendHexUint(e.chunkHexBuf[:0], int(c.DeclaredSize))
	e.chunkHexLen = len(buf)
	e.chunkSub = csHexSize
}

func (e *Encoder) encodeBodyChunked(wb *WriteBuffer) (EncodeResult, error) {
	for !wb.Full() {
		if e.curChunk == nil {
			if e.chunkQueue.Empty() {
				return EncodeNeedMoreBody, nil
			}
			e.beginChunk(e.chunkQueue.Pop())
		}
		c := e.curChunk
		switch e.chunkSub {
		case csHexSize:
			if !writeSeg(wb, e.chunkHexBuf[:e.chunkHexLen], &e.segOff) {
				return EncodeProgress, nil
			}
			e.segOff = 0
			if e.extIdx < len(c.Extensions) {
				e.chunkSub = csExtSemi
			} else {
				e.chunkSub = csLineCRLF
			}
		case csExtSemi:
			if !writeSeg(wb, semiByte, &e.segOff) {
				return EncodeProgress, nil
			}
			e.segOff = 0
			e.chunkSub = csExtKey
		case csExtKey:
			if !writeSeg(wb, c.Extensions[e.extIdx].Key, &e.segOff) {
				return EncodeProgress, nil
			}
			e.segOff = 0
			e.chunkSub = csExtEq
		case csExtEq:
			if !writeSeg(wb, eqByte, &e.segOff) {
				return EncodeProgress, nil
			}
			e.segOff = 0
			e.chunkSub = csExtValue
		case csExtValue:
			if !writeSeg(wb, c.Extensions[e.extIdx].Value, &e.segOff) {
				return EncodeProgress, nil
			}
			e.segOff = 0
			e.extIdx++
			if e.extIdx < len(c.Extensions) {
				e.chunkSub = csExtSemi
			} else {
				e.chunkSub = csLineCRLF
			}
		case csLineCRLF:
			if !writeSeg(wb, crlfBytes, &e.segOff) {
				return EncodeProgress, nil
			}
			e.segOff = 0
			if c.DeclaredSize == 0 {
				e.chunkSub = csPayloadCRLF
				continue
			}
			e.chunkSub = csPayload
		case csPayload:
			res, err := e.writeChunkPayload(wb)
			if err != nil {
				e.failChunk(err)
				return EncodeProgress, err
			}
			if res != EncodeDone {
				return res, nil
			}
			e.chunkSub = csPayloadCRLF
		case csPayloadCRLF:
			if !writeSeg(wb, crlfBytes, &e.segOff) {
				return EncodeProgress, nil
			}
			e.segOff = 0
			if c.OnComplete != nil {
				c.OnComplete(c.UserData, nil)
			}
			terminator := c.Terminator()
			e.curChunk = nil
			if terminator {
				e.phase = phaseDone
				return EncodeDone, nil
			}
		}
	}
	return EncodeProgress, nil
}

func (e *Encoder) failChunk(err error) {
	c := e.curChunk
	e.curChunk = nil
	if c != nil && c.OnComplete != nil {
		c.OnComplete(c.UserData, err)
	}
}

// writeChunkPayload streams the current chunk's payload, enforcing that
// the producer yields exactly DeclaredSize bytes (§4.1).
func (e *Encoder) writeChunkPayload(wb *WriteBuffer) (EncodeResult, error) {
	c := e.curChunk
	for e.chunkPayloadProduced < c.DeclaredSize && !wb.Full() {
		remaining := c.DeclaredSize - e.chunkPayloadProduced
		n := int64(wb.Avail())
		if n > remaining {
			n = remaining
		}
		if n > int64(len(e.scratch)) {
			n = int64(len(e.scratch))
		}
		rn, err := c.Producer.Read(e.scratch[:n])
		if err != nil {
			return EncodeProgress, err
		}
		if rn > 0 {
			wb.Append(e.scratch[:rn])
			e.chunkPayloadProduced += int64(rn)
			continue
		}
		if c.Producer.Done() {
			return EncodeProgress, e.failLength()
		}
		return EncodeNeedMoreBody, nil
	}
	if e.chunkPayloadProduced < c.DeclaredSize {
		return EncodeProgress, nil
	}
	if !c.Producer.Done() {
		return EncodeProgress, e.failLength()
	}
	return EncodeDone, nil
}
