package fs

import (
	"bytes"
	"encoding/binary"

	"go.trai.ch/srcset/internal/core/domain"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// maxChunkLen is the largest chunk length the PNG format allows.
const maxChunkLen = 1<<31 - 1

// chunkScanner walks a PNG stream as it is written and collects the chunks
// that variants must keep. It stops at the first byte that breaks the layout
// and never fails the write: a stream that is not PNG simply yields nothing.
type chunkScanner struct {
	head   []byte
	state  scanState
	remain int
	typ    string
	data   []byte
	chunks []domain.Chunk
}

type scanState uint8

const (
	scanSignature scanState = iota
	scanHeader
	scanData
	scanCRC
	scanDone
)

func (s *chunkScanner) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 && s.state != scanDone {
		switch s.state {
		case scanSignature:
			p = s.fill(p, len(pngSignature))
			if len(s.head) < len(pngSignature) {
				continue
			}
			if !bytes.Equal(s.head, pngSignature) {
				s.state = scanDone
				continue
			}
			s.head = s.head[:0]
			s.state = scanHeader
		case scanHeader:
			p = s.fill(p, 8)
			if len(s.head) < 8 {
				continue
			}
			length := binary.BigEndian.Uint32(s.head[:4])
			if length > maxChunkLen {
				s.state = scanDone
				continue
			}
			s.typ = string(s.head[4:8])
			s.remain = int(length)
			s.data = nil
			if domain.PreservedChunk(s.typ) {
				s.data = make([]byte, 0, s.remain)
			}
			s.head = s.head[:0]
			s.state = scanData
		case scanData:
			k := min(s.remain, len(p))
			if s.data != nil {
				s.data = append(s.data, p[:k]...)
			}
			s.remain -= k
			p = p[k:]
			if s.remain == 0 {
				s.state = scanCRC
				s.remain = 4
			}
		case scanCRC:
			k := min(s.remain, len(p))
			s.remain -= k
			p = p[k:]
			if s.remain > 0 {
				continue
			}
			if s.data != nil {
				s.chunks = append(s.chunks, domain.Chunk{Type: s.typ, Data: s.data})
			}
			s.state = scanHeader
			if s.typ == "IEND" {
				s.state = scanDone
			}
		}
	}
	return n, nil
}

// fill moves bytes from p into the header buffer until it holds want bytes.
func (s *chunkScanner) fill(p []byte, want int) []byte {
	k := min(want-len(s.head), len(p))
	s.head = append(s.head, p[:k]...)
	return p[k:]
}
