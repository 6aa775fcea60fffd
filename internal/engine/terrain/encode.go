package terrain

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVertices writes vertices into dst in the GPU layout described by
// the Offset constants. dst must hold len(vertices)*VertexSize bytes.
func EncodeVertices(dst []byte, vertices []Vertex) error {
	if need := len(vertices) * VertexSize; len(dst) < need {
		return fmt.Errorf("encode vertices: need %d bytes, have %d", need, len(dst))
	}

	le := binary.LittleEndian
	for i := range vertices {
		v := &vertices[i]
		b := dst[i*VertexSize : (i+1)*VertexSize]

		for c := 0; c < 3; c++ {
			le.PutUint32(b[OffsetPosition+c*4:], math.Float32bits(v.Position[c]))
		}
		for c := 0; c < 2; c++ {
			le.PutUint32(b[OffsetTexCoord+c*4:], math.Float32bits(v.TexCoord[c]))
		}
		for c := 0; c < 3; c++ {
			le.PutUint16(b[OffsetNormal+c*2:], uint16(v.Normal[c]))
			le.PutUint16(b[OffsetTangent+c*2:], uint16(v.Tangent[c]))
			le.PutUint16(b[OffsetBitangent+c*2:], uint16(v.Bitangent[c]))
		}
		b[38], b[39] = 0, 0
	}
	return nil
}

// DecodeVertex reads the i-th vertex back from an encoded stream.
func DecodeVertex(src []byte, i int) Vertex {
	le := binary.LittleEndian
	b := src[i*VertexSize : (i+1)*VertexSize]

	var v Vertex
	for c := 0; c < 3; c++ {
		v.Position[c] = math.Float32frombits(le.Uint32(b[OffsetPosition+c*4:]))
	}
	for c := 0; c < 2; c++ {
		v.TexCoord[c] = math.Float32frombits(le.Uint32(b[OffsetTexCoord+c*4:]))
	}
	for c := 0; c < 3; c++ {
		v.Normal[c] = int16(le.Uint16(b[OffsetNormal+c*2:]))
		v.Tangent[c] = int16(le.Uint16(b[OffsetTangent+c*2:]))
		v.Bitangent[c] = int16(le.Uint16(b[OffsetBitangent+c*2:]))
	}
	return v
}

// EncodeIndices writes 16-bit little-endian indices into dst.
func EncodeIndices(dst []byte, indices []uint16) error {
	if need := len(indices) * IndexSize; len(dst) < need {
		return fmt.Errorf("encode indices: need %d bytes, have %d", need, len(dst))
	}
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(dst[i*IndexSize:], idx)
	}
	return nil
}

// DecodeIndex reads the i-th index back from an encoded buffer.
func DecodeIndex(src []byte, i int) uint16 {
	return binary.LittleEndian.Uint16(src[i*IndexSize:])
}
