package graphics

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"uniform-preview/internal/render"
	"uniform-preview/internal/scene"
)

const minSphereRings = 3

type meshKey struct {
	shape    scene.Shape
	size     mgl32.Vec3
	segments int
}

// registry maps primitives to GPU meshes. Meshes are generated on first draw so GPU
// resources are only allocated once the window and its GL context exist.
type registry struct {
	meshes map[meshKey]rl.Mesh
	mtl    rl.Material
	lit    bool
}

func newRegistry() *registry {
	r := &registry{
		meshes: make(map[meshKey]rl.Mesh),
		mtl:    rl.LoadMaterialDefault(),
	}
	if shader := rl.LoadShaderFromMemory(litVS, litFS); rl.IsShaderValid(shader) {
		r.mtl.Shader = shader
		r.lit = true
	}
	return r
}

func (r *registry) mesh(it render.Item) (rl.Mesh, bool) {
	key := meshKey{shape: it.Shape, size: it.Size, segments: it.Segments}
	if m, ok := r.meshes[key]; ok {
		return m, true
	}
	var m rl.Mesh
	switch it.Shape {
	case scene.ShapeBox:
		m = rl.GenMeshCube(it.Size[0], it.Size[1], it.Size[2])
	case scene.ShapeSphere:
		seg := it.Segments
		if seg < minSphereRings {
			seg = minSphereRings
		}
		m = rl.GenMeshSphere(it.Size[0], seg, seg)
	case scene.ShapePlane:
		m = rl.GenMeshPlane(it.Size[0], it.Size[1], 1, 1)
	default:
		return rl.Mesh{}, false
	}
	r.meshes[key] = m
	return m, true
}

// setLights uploads the frame's ambient, first directional and first point light.
func (r *registry) setLights(lights []scene.Light, eye mgl32.Vec3) {
	if !r.lit {
		return
	}
	var ambient, dirColor, pointColor [3]float32
	dir := [3]float32{0, 1, 0}
	var point [3]float32
	seenDir, seenPoint := false, false
	for _, l := range lights {
		c := lightColor(l)
		switch l.Kind {
		case scene.LightAmbient:
			for i := range ambient {
				ambient[i] += c[i]
			}
		case scene.LightDirectional:
			if !seenDir {
				seenDir = true
				dirColor = c
				if l.Position.Len() > 0 {
					n := l.Position.Normalize()
					dir = [3]float32{n[0], n[1], n[2]}
				}
			}
		case scene.LightPoint:
			if !seenPoint {
				seenPoint = true
				pointColor = c
				point = [3]float32{l.Position[0], l.Position[1], l.Position[2]}
			}
		}
	}
	view := [3]float32{eye[0], eye[1], eye[2]}
	r.setVec3("viewPos", view)
	r.setVec3("lightDir", dir)
	r.setVec3("lightColor", dirColor)
	r.setVec3("pointPos", point)
	r.setVec3("pointColor", pointColor)
	r.setVec3("ambient", ambient)
}

func (r *registry) setVec3(name string, v [3]float32) {
	if loc := rl.GetShaderLocation(r.mtl.Shader, name); loc >= 0 {
		rl.SetShaderValueV(r.mtl.Shader, loc, v[:], rl.ShaderUniformVec3, 1)
	}
}

func (r *registry) setFloat(name string, v float32) {
	if loc := rl.GetShaderLocation(r.mtl.Shader, name); loc >= 0 {
		rl.SetShaderValue(r.mtl.Shader, loc, []float32{v}, rl.ShaderUniformFloat)
	}
}

// draw submits one item. Must be called between BeginMode3D and EndMode3D.
func (r *registry) draw(it render.Item) {
	m, ok := r.mesh(it)
	if !ok {
		return
	}
	model := it.Model
	if it.Shape == scene.ShapePlane {
		// raylib planes lie in XZ; scene planes lie in XY.
		model = model.Mul4(mgl32.HomogRotate3DX(math.Pi / 2))
	}
	c := it.Material.Color
	if albedo := r.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = rl.NewColor(c.R, c.G, c.B, uint8(clampUnit(it.Material.Opacity)*255))
	}
	if r.lit {
		r.setFloat("specularPower", it.Material.Shininess)
	}
	rl.DrawMesh(m, r.mtl, toMatrix(model))
}

// unload releases every mesh and the shared material.
func (r *registry) unload() {
	for k, m := range r.meshes {
		rl.UnloadMesh(&m)
		delete(r.meshes, k)
	}
	rl.UnloadMaterial(r.mtl)
}

func lightColor(l scene.Light) [3]float32 {
	return [3]float32{
		float32(l.Color.R) / 255 * l.Intensity,
		float32(l.Color.G) / 255 * l.Intensity,
		float32(l.Color.B) / 255 * l.Intensity,
	}
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// toMatrix converts a column-major mgl32 matrix into raylib's layout, which stores the
// same column-major order in fields M0..M15.
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragNormal = mat3(matModel) * vertexNormal;
  gl_Position = matProjection * matView * worldPos;
}
`
	litFS = `#version 330
in vec3 fragPosition;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec3 lightColor;
uniform vec3 pointPos;
uniform vec3 pointColor;
uniform vec3 ambient;
uniform float specularPower;
out vec4 finalColor;
const float specularStrength = 0.35;
vec3 contribution(vec3 N, vec3 V, vec3 L, vec3 color, vec3 albedo) {
  float NdotL = max(dot(N, L), 0.0);
  if (NdotL <= 0.0) return vec3(0.0);
  float spec = specularPower > 0.0 ? pow(max(dot(N, normalize(L + V)), 0.0), specularPower) * specularStrength : 0.0;
  return color * (albedo * NdotL + spec);
}
void main() {
  vec4 tint = colDiffuse;
  vec3 N = normalize(fragNormal);
  vec3 V = normalize(viewPos - fragPosition);
  if (dot(N, V) < 0.0) N = -N;
  vec3 c = ambient * tint.rgb;
  c += contribution(N, V, normalize(lightDir), lightColor, tint.rgb);
  c += contribution(N, V, normalize(pointPos - fragPosition), pointColor, tint.rgb);
  finalColor = vec4(min(c, vec3(1.0)), tint.a);
}
`
)
