// Package resource defines the runtime resource objects produced by the
// importers, and their binary form.
package resource

import (
	"github.com/Faultbox/assetimport/pkg/math"
)

// Material is a named texture set. After import the texture fields hold
// content hashes rather than paths.
type Material struct {
	Name            string
	DiffuseTexture  string
	NormalTexture   string
	SpecularTexture string
	AlphaTexture    string
}

// Textures returns pointers to the texture fields, in a fixed order.
func (m *Material) Textures() []*string {
	return []*string{&m.DiffuseTexture, &m.NormalTexture, &m.SpecularTexture, &m.AlphaTexture}
}

// HasTextures reports whether any texture field is set.
func (m *Material) HasTextures() bool {
	for _, tex := range m.Textures() {
		if *tex != "" {
			return true
		}
	}
	return false
}

// Polygon is one face; Indices address the per-corner arrays of its part.
type Polygon struct {
	Indices []uint32
}

// ModelPart is one primitive list of a geometry. Positions, Normals and
// Texcoords are per corner and always have the same length.
type ModelPart struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	Texcoords []math.Vec2
	Polygons  []Polygon
	Materials []Material
}

// CornerCount returns the number of corners stored in the part.
func (p *ModelPart) CornerCount() int {
	return len(p.Positions)
}

// Triangles fans every polygon into a flat triangle index list.
func (p *ModelPart) Triangles() []uint32 {
	n := 0
	for _, poly := range p.Polygons {
		if len(poly.Indices) >= 3 {
			n += (len(poly.Indices) - 2) * 3
		}
	}

	out := make([]uint32, 0, n)
	for _, poly := range p.Polygons {
		for i := 1; i+1 < len(poly.Indices); i++ {
			out = append(out, poly.Indices[0], poly.Indices[i], poly.Indices[i+1])
		}
	}
	return out
}

// ModelResourceGroup holds the parts of one geometry and the transform of
// the scene node that instances it.
type ModelResourceGroup struct {
	Name     string
	Offset   math.Vec3
	Scale    math.Vec3
	Rotation math.Quat
	Parts    []ModelPart
}

// NewModelResourceGroup returns an empty group with the identity transform.
func NewModelResourceGroup(name string) *ModelResourceGroup {
	return &ModelResourceGroup{
		Name:     name,
		Scale:    math.Vec3One(),
		Rotation: math.QuatIdentity(),
	}
}

// Matrix returns the group transform as translate * rotate * scale.
func (g *ModelResourceGroup) Matrix() math.Mat4 {
	return math.Compose(g.Offset, g.Rotation, g.Scale)
}

// PolygonCount returns the number of polygons over all parts.
func (g *ModelResourceGroup) PolygonCount() int {
	n := 0
	for i := range g.Parts {
		n += len(g.Parts[i].Polygons)
	}
	return n
}

// CornerCount returns the number of corners over all parts.
func (g *ModelResourceGroup) CornerCount() int {
	n := 0
	for i := range g.Parts {
		n += g.Parts[i].CornerCount()
	}
	return n
}

// TriangleCount returns the number of triangles the parts fan into.
func (g *ModelResourceGroup) TriangleCount() int {
	n := 0
	for i := range g.Parts {
		n += len(g.Parts[i].Triangles()) / 3
	}
	return n
}

// Bounds returns the axis-aligned box of every corner position after the
// group transform. ok is false when the group has no corners.
func (g *ModelResourceGroup) Bounds() (lo, hi math.Vec3, ok bool) {
	m := g.Matrix()
	for i := range g.Parts {
		for _, p := range g.Parts[i].Positions {
			w := m.TransformVec3(p)
			if !ok {
				lo, hi, ok = w, w, true
				continue
			}
			lo = lo.Min(w)
			hi = hi.Max(w)
		}
	}
	return lo, hi, ok
}
