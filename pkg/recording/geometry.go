package recording

// GeometryKind identifies the shape variant carried by a Geometry.
type GeometryKind uint8

const (
	GeometryBox GeometryKind = iota
	GeometrySphere
	GeometryCylinder
	GeometryPlane
	GeometryMesh
)

// String returns a human-readable geometry kind name.
func (k GeometryKind) String() string {
	switch k {
	case GeometryBox:
		return "box"
	case GeometrySphere:
		return "sphere"
	case GeometryCylinder:
		return "cylinder"
	case GeometryPlane:
		return "plane"
	case GeometryMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Geometry is a tagged variant over primitive shape parameters or an
// indexed triangle mesh. Immutable once attached to a node; a later
// create command at the same path replaces it wholesale.
type Geometry struct {
	Kind GeometryKind

	// Primitive parameters
	Width  float32 // box, plane
	Height float32 // box, plane, cylinder
	Depth  float32 // box
	Radius float32 // sphere

	RadiusTop    float32 // cylinder
	RadiusBottom float32 // cylinder

	// Mesh buffers: Positions is xyz-interleaved, Normals/UVs optional,
	// Indices are triangle index triples.
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
}

// VertexCount returns the number of mesh vertices (0 for primitives).
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of indexed triangles (0 for primitives).
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Material holds color, opacity and shading flags. Replaced wholesale
// like Geometry.
type Material struct {
	Color       [4]float32 // RGBA, 0-1
	Opacity     float32
	Wireframe   bool
	DoubleSided bool
	Transparent bool
}

// DefaultMaterial returns an opaque white material.
func DefaultMaterial() *Material {
	return &Material{
		Color:   [4]float32{1, 1, 1, 1},
		Opacity: 1,
	}
}
