package terrain

import (
	"errors"
	stdmath "math"
	"testing"
	"unsafe"

	"github.com/Faultbox/groundplane/pkg/math"
)

func TestGenerateGridLayout(t *testing.T) {
	vs, idx := GenerateGrid(GridParams{CellX: 2, CellZ: 1, CellSize: 1, VerticesPerSide: 3, Height: 7})

	if len(vs) != 9 {
		t.Fatalf("vertex count = %d, want 9", len(vs))
	}
	if len(idx) != 24 {
		t.Fatalf("index count = %d, want 24", len(idx))
	}

	first := vs[0]
	if first.Position != [3]float32{2, 7, 1} {
		t.Errorf("first position = %v, want [2 7 1]", first.Position)
	}
	last := vs[8]
	if last.Position != [3]float32{3, 7, 2} {
		t.Errorf("last position = %v, want [3 7 2]", last.Position)
	}
	if last.TexCoord != [2]float32{1, 1} || vs[1].TexCoord != [2]float32{0.5, 0} {
		t.Errorf("uv not linear: %v %v", vs[1].TexCoord, last.TexCoord)
	}
	for i, v := range vs {
		if v.Normal != upNormal || v.Tangent != tangentX || v.Bitangent != bitangentZ {
			t.Fatalf("vertex %d: unexpected basis %v %v %v", i, v.Normal, v.Tangent, v.Bitangent)
		}
	}
	if n := unpackSnorm(vs[0].Normal[1]); n != 1 {
		t.Errorf("normal Y = %v, want 1", n)
	}
}

func TestGenerateGridWinding(t *testing.T) {
	vs, idx := GenerateGrid(GridParams{CellSize: 2, VerticesPerSide: 3})

	want := []uint16{
		0, 3, 1, 1, 3, 4,
		1, 4, 2, 2, 4, 5,
		3, 6, 4, 4, 6, 7,
		4, 7, 5, 5, 7, 8,
	}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("indices = %v, want %v", idx, want)
		}
	}

	// Every triangle faces +Y.
	pos := func(i uint16) math.Vec3 {
		p := vs[i].Position
		return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
	}
	for i := 0; i < len(idx); i += 3 {
		a, b, c := pos(idx[i]), pos(idx[i+1]), pos(idx[i+2])
		if n := b.Sub(a).Cross(c.Sub(a)); n.Y <= 0 {
			t.Errorf("triangle %d normal %v does not face up", i/3, n)
		}
	}
}

func TestGenerateGridRejectsSize(t *testing.T) {
	for _, n := range []int{0, 1, 257, 300} {
		vs, idx := GenerateGrid(GridParams{CellSize: 1, VerticesPerSide: n})
		if vs != nil || idx != nil {
			t.Errorf("%d vertices per side: got %d vertices, want none", n, len(vs))
		}
	}
}

func TestGenerateGridLargestIndex(t *testing.T) {
	vs, idx := GenerateGrid(GridParams{CellSize: 1, VerticesPerSide: maxVerticesPerSide})
	var top uint16
	for _, i := range idx {
		top = max(top, i)
	}
	if int(top) != len(vs)-1 {
		t.Errorf("largest index = %d, want %d", top, len(vs)-1)
	}
}

func TestVertexSize(t *testing.T) {
	if s := unsafe.Sizeof(Vertex{}); s != VertexSize {
		t.Errorf("sizeof(Vertex) = %d, want %d", s, VertexSize)
	}
}

func TestEncodeVertex(t *testing.T) {
	v := Vertex{
		Position:  [3]float32{1.5, -2, 1e6},
		TexCoord:  [2]float32{0.25, 1},
		Normal:    [3]int16{-32767, 0, 32767},
		Tangent:   [3]int16{1, 2, 3},
		Bitangent: [3]int16{-1, -2, -3},
	}
	buf := make([]byte, 2*VertexSize)
	if err := EncodeVertices(buf, []Vertex{{}, v}); err != nil {
		t.Fatalf("EncodeVertices: %v", err)
	}
	if got := DecodeVertex(buf, 1); got != v {
		t.Errorf("DecodeVertex = %+v, want %+v", got, v)
	}
	// 1.5f little-endian at the start of the second vertex.
	if buf[VertexSize+2] != 0xc0 || buf[VertexSize+3] != 0x3f {
		t.Errorf("position bytes = % x", buf[VertexSize:VertexSize+4])
	}

	if err := EncodeVertices(buf[:VertexSize], []Vertex{v, v}); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestEncodeIndices(t *testing.T) {
	buf := make([]byte, 6)
	if err := EncodeIndices(buf, []uint16{1, 0x0203, 65535}); err != nil {
		t.Fatalf("EncodeIndices: %v", err)
	}
	if buf[2] != 0x03 || buf[3] != 0x02 {
		t.Errorf("index not little-endian: % x", buf)
	}
	if DecodeIndex(buf, 2) != 65535 {
		t.Errorf("DecodeIndex(2) = %d", DecodeIndex(buf, 2))
	}
	if err := EncodeIndices(buf[:4], []uint16{1, 2, 3}); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestPackSnorm(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-3, -32767},
		{0.5, 16384},
	}
	for _, tt := range tests {
		if got := packSnorm(tt.in); got != tt.want {
			t.Errorf("packSnorm(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := unpackSnorm(-32768); got != -1 {
		t.Errorf("unpackSnorm(-32768) = %v, want -1", got)
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := DefaultSettings()
	if err := valid.Validate(); err != nil {
		t.Fatalf("DefaultSettings invalid: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"zero chunks", func(s *Settings) { s.ChunksPerSide = 0 }},
		{"negative size", func(s *Settings) { s.TerrainSize = -1 }},
		{"no lods", func(s *Settings) { s.LODs = nil }},
		{"one vertex per side", func(s *Settings) { s.LODs[4].VerticesPerSide = 1 }},
		{"too many vertices", func(s *Settings) { s.LODs[0].VerticesPerSide = 257 }},
		{"negative distance", func(s *Settings) { s.LODs[0].Distance = -1 }},
		{"nan size", func(s *Settings) { s.TerrainSize = float32(stdmath.NaN()) }},
		{"infinite size", func(s *Settings) { s.TerrainSize = float32(stdmath.Inf(1)) }},
		{"nan distance", func(s *Settings) { s.LODs[2].Distance = float32(stdmath.NaN()) }},
		{"infinite distance", func(s *Settings) { s.LODs[4].Distance = float32(stdmath.Inf(1)) }},
		{"nan height", func(s *Settings) { s.TerrainHeight = float32(stdmath.NaN()) }},
		{"distances not ascending", func(s *Settings) { s.LODs[2].Distance = 1 }},
		{"finer at distance", func(s *Settings) { s.LODs[3].VerticesPerSide = 20 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			err := s.Validate()
			if !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Validate() = %v, want ErrInvalidSettings", err)
			}
		})
	}
}

func TestMemoryRequirements(t *testing.T) {
	s := Settings{
		ChunksPerSide: 2,
		TerrainSize:   10,
		LODs:          []LODLevel{{VerticesPerSide: 3}, {VerticesPerSide: 2, Distance: 5}},
	}
	vb, ib := MemoryRequirements(s)
	if want := 4 * (9 + 4) * VertexSize; vb != want {
		t.Errorf("vertex bytes = %d, want %d", vb, want)
	}
	if want := 4 * (24 + 6) * IndexSize; ib != want {
		t.Errorf("index bytes = %d, want %d", ib, want)
	}
}
