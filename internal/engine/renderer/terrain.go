package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/groundplane/internal/engine/lighting"
	"github.com/Faultbox/groundplane/internal/engine/shader"
	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/internal/logger"
	"github.com/Faultbox/groundplane/pkg/math"
)

const terrainVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec2 aTexCoord;
layout (location = 2) in vec3 aNormal;
layout (location = 3) in vec3 aTangent;
layout (location = 4) in vec3 aBitangent;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vWorldPos;
out vec2 vTexCoord;
out vec3 vNormal;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vTexCoord = aTexCoord;
    vNormal = mat3(uModel) * aNormal;
    gl_Position = uProjection * uView * world;
}
`

const terrainFragmentShader = `#version 410 core

in vec3 vWorldPos;
in vec2 vTexCoord;
in vec3 vNormal;

uniform vec3 uLightDir;
uniform vec3 uCameraPos;
uniform vec3 uTint;
uniform float uTiles;
uniform float uFogFar;
uniform vec3 uFogColor;

out vec4 FragColor;

void main() {
    vec2 cell = floor(vTexCoord * uTiles);
    float checker = mod(cell.x + cell.y, 2.0);
    vec3 base = mix(vec3(0.32, 0.45, 0.22), vec3(0.40, 0.54, 0.28), checker) * uTint;

    float diffuse = max(dot(normalize(vNormal), normalize(-uLightDir)), 0.0);
    vec3 color = base * (0.35 + 0.65 * diffuse);

    float fog = clamp(length(vWorldPos - uCameraPos) / uFogFar, 0.0, 1.0);
    FragColor = vec4(mix(color, uFogColor, fog * fog), 1.0);
}
`

// lodTints colors chunks by their selected LOD when LOD display is on.
var lodTints = []math.Vec3{
	{X: 1, Y: 1, Z: 1},
	{X: 1.4, Y: 1, Z: 0.6},
	{X: 0.7, Y: 1.4, Z: 0.7},
	{X: 0.6, Y: 0.8, Z: 1.6},
	{X: 1.5, Y: 0.6, Z: 1.4},
}

// TerrainRenderer draws visible terrain chunks straight out of the buffer
// pool arenas: one bind of each arena, then one indexed draw per chunk.
type TerrainRenderer struct {
	program uint32
	vao     uint32

	vertexBuffer uint32
	indexBuffer  uint32
	ownsBuffers  bool // Arenas were host memory and got copied into GL buffers

	locModel      int32
	locView       int32
	locProjection int32
	locLightDir   int32
	locCameraPos  int32
	locTint       int32
	locTiles      int32
	locFogFar     int32
	locFogColor   int32

	terrain  *terrain.Terrain
	Sun      lighting.Sun
	ShowLODs bool
	FogFar   float32

	log *zap.Logger
}

// NewTerrainRenderer compiles the terrain program and binds the arenas of
// t's buffer pool. When the pool was filled by a host allocator the arena
// bytes are copied into GL buffers once; otherwise the arena handles are
// used as buffer objects directly.
func NewTerrainRenderer(t *terrain.Terrain) (*TerrainRenderer, error) {
	tr := &TerrainRenderer{
		terrain: t,
		Sun:     lighting.DefaultSun(),
		FogFar:  t.Settings().TerrainSize,
		log:     logger.Named("renderer"),
	}

	program, err := shader.CompileProgram(terrainVertexShader, terrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	tr.program = program

	tr.locModel = shader.GetUniform(program, "uModel")
	tr.locView = shader.GetUniform(program, "uView")
	tr.locProjection = shader.GetUniform(program, "uProjection")
	tr.locLightDir = shader.GetUniform(program, "uLightDir")
	tr.locCameraPos = shader.GetUniform(program, "uCameraPos")
	tr.locTint = shader.GetUniform(program, "uTint")
	tr.locTiles = shader.GetUniform(program, "uTiles")
	tr.locFogFar = shader.GetUniform(program, "uFogFar")
	tr.locFogColor = shader.GetUniform(program, "uFogColor")

	tr.bindArenas(t.BufferPool())
	return tr, nil
}

func (tr *TerrainRenderer) bindArenas(pool *terrain.BufferPool) {
	vb, ib := pool.VertexPoolBase(), pool.IndexPoolBase()
	if vb.Data != nil {
		// Host memory: upload a copy.
		vSize, iSize := pool.Size()
		gl.GenBuffers(1, &tr.vertexBuffer)
		gl.BindBuffer(gl.ARRAY_BUFFER, tr.vertexBuffer)
		gl.BufferData(gl.ARRAY_BUFFER, vSize, gl.Ptr(vb.Data), gl.STATIC_DRAW)
		gl.GenBuffers(1, &tr.indexBuffer)
		gl.BindBuffer(gl.ARRAY_BUFFER, tr.indexBuffer)
		gl.BufferData(gl.ARRAY_BUFFER, iSize, gl.Ptr(ib.Data), gl.STATIC_DRAW)
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
		tr.ownsBuffers = true
	} else {
		tr.vertexBuffer = vb.Handle
		tr.indexBuffer = ib.Handle
	}

	gl.GenVertexArrays(1, &tr.vao)
	gl.BindVertexArray(tr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vertexBuffer)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, tr.indexBuffer)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, terrain.VertexSize, terrain.OffsetPosition)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, terrain.VertexSize, terrain.OffsetTexCoord)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 3, gl.SHORT, true, terrain.VertexSize, terrain.OffsetNormal)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(3, 3, gl.SHORT, true, terrain.VertexSize, terrain.OffsetTangent)
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointerWithOffset(4, 3, gl.SHORT, true, terrain.VertexSize, terrain.OffsetBitangent)
	gl.EnableVertexAttribArray(4)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	tr.log.Debug("terrain arenas bound",
		zap.Uint32("vao", tr.vao),
		zap.Uint32("vertexBuffer", tr.vertexBuffer),
		zap.Uint32("indexBuffer", tr.indexBuffer),
		zap.Bool("copied", tr.ownsBuffers),
	)
}

// Render draws refs, which should already be culled and sorted.
func (tr *TerrainRenderer) Render(refs []terrain.ChunkRef, view, projection math.Mat4, cameraPos math.Vec3) {
	gl.UseProgram(tr.program)

	shader.SetMat4(tr.locModel, tr.terrain.ModelMatrix())
	shader.SetMat4(tr.locView, view)
	shader.SetMat4(tr.locProjection, projection)
	shader.SetVec3(tr.locLightDir, tr.Sun.Direction())
	shader.SetVec3(tr.locCameraPos, cameraPos)
	shader.SetVec3(tr.locFogColor, math.Vec3{X: 0.55, Y: 0.7, Z: 0.85})
	gl.Uniform1f(tr.locFogFar, tr.FogFar)
	gl.Uniform1f(tr.locTiles, 8)
	shader.SetVec3(tr.locTint, lodTints[0])

	gl.BindVertexArray(tr.vao)
	for _, ref := range refs {
		c := tr.terrain.Chunk(ref)
		m := c.CurrentLODMesh()
		if tr.ShowLODs {
			shader.SetVec3(tr.locTint, lodTints[int(c.CurrentLOD())%len(lodTints)])
		}
		gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(m.IndexCount), gl.UNSIGNED_SHORT,
			gl.PtrOffset(m.IndexAlloc.Offset), int32(m.VertexAlloc.Offset/terrain.VertexSize))
	}
	gl.BindVertexArray(0)
}

// Close releases GL objects. Arena buffers are only deleted when they were
// copied here; otherwise the pool owns them.
func (tr *TerrainRenderer) Close() {
	if tr.vao != 0 {
		gl.DeleteVertexArrays(1, &tr.vao)
	}
	if tr.ownsBuffers {
		gl.DeleteBuffers(1, &tr.vertexBuffer)
		gl.DeleteBuffers(1, &tr.indexBuffer)
	}
	if tr.program != 0 {
		gl.DeleteProgram(tr.program)
	}
}
