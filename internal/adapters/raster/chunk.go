package raster

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/zerr"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// iend is the complete trailing chunk of every PNG stream.
var iend = []byte{0, 0, 0, 0, 'I', 'E', 'N', 'D', 0xae, 0x42, 0x60, 0x82}

// insertChunks writes chunks into an encoded PNG, directly before IEND.
func insertChunks(data []byte, chunks []domain.Chunk) ([]byte, error) {
	if !bytes.HasPrefix(data, pngSignature) || !bytes.HasSuffix(data, iend) {
		return nil, zerr.New("encoded image is not a png stream")
	}

	body := data[:len(data)-len(iend)]
	out := bytes.NewBuffer(make([]byte, 0, len(data)+chunksLen(chunks)))
	out.Write(body)
	for _, c := range chunks {
		if len(c.Type) != 4 {
			return nil, zerr.With(zerr.New("invalid chunk type"), "type", c.Type)
		}
		writeChunk(out, c)
	}
	out.Write(iend)
	return out.Bytes(), nil
}

func writeChunk(out *bytes.Buffer, c domain.Chunk) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(c.Data)))
	out.Write(n[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(c.Type))
	crc.Write(c.Data)
	out.WriteString(c.Type)
	out.Write(c.Data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	out.Write(n[:])
}

func chunksLen(chunks []domain.Chunk) int {
	n := 0
	for _, c := range chunks {
		n += 12 + len(c.Data)
	}
	return n
}
