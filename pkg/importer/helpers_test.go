package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/math"
)

const tolerance = 1e-5

func floatsPtr(v ...float32) *formats.Floats {
	f := formats.Floats(v)
	return &f
}

func assertVec3Near(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tolerance, "X")
	assert.InDelta(t, want.Y, got.Y, tolerance, "Y")
	assert.InDelta(t, want.Z, got.Z, tolerance, "Z")
}

func assertVec4Near(t *testing.T, want, got math.Vec4) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tolerance, "X")
	assert.InDelta(t, want.Y, got.Y, tolerance, "Y")
	assert.InDelta(t, want.Z, got.Z, tolerance, "Z")
	assert.InDelta(t, want.W, got.W, tolerance, "W")
}

func assertQuatNear(t *testing.T, want, got math.Quat) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tolerance, "X")
	assert.InDelta(t, want.Y, got.Y, tolerance, "Y")
	assert.InDelta(t, want.Z, got.Z, tolerance, "Z")
	assert.InDelta(t, want.W, got.W, tolerance, "W")
}

// makeMesh builds a mesh with a triangle of positions, normals and
// texcoords and one polygon list over them.
func makeMesh(pl formats.PolyList) *formats.Mesh {
	return &formats.Mesh{
		Sources: []formats.Source{
			{
				ID:         "pos",
				FloatArray: &formats.FloatArray{Data: formats.Floats{0, 0, 0, 1, 0, 0, 0, 1, 0}},
				Accessor:   &formats.Accessor{Stride: 3},
			},
			{
				ID:         "nrm",
				FloatArray: &formats.FloatArray{Data: formats.Floats{0, 0, 1, 0, 1, 0, 1, 0, 0}},
				Accessor:   &formats.Accessor{Stride: 3},
			},
			{
				ID:         "uv",
				FloatArray: &formats.FloatArray{Data: formats.Floats{0, 0, 1, 0, 0, 1}},
				Accessor:   &formats.Accessor{Stride: 2},
			},
		},
		Vertices: &formats.Vertices{
			ID:     "verts",
			Inputs: []formats.Input{{Semantic: formats.SemanticPosition, Source: "#pos"}},
		},
		PolyLists: []formats.PolyList{pl},
	}
}

func vertexInput(offset int) formats.Input {
	return formats.Input{Semantic: formats.SemanticVertex, Source: "#verts", Offset: offset}
}

func normalInput(offset int) formats.Input {
	return formats.Input{Semantic: formats.SemanticNormal, Source: "#nrm", Offset: offset}
}

func texcoordInput(offset int) formats.Input {
	return formats.Input{Semantic: formats.SemanticTexcoord, Source: "#uv", Offset: offset}
}

func makeLibrary(geoms ...formats.Geometry) *formats.GeometryLibrary {
	return &formats.GeometryLibrary{Geometries: geoms}
}

func parseCollada(t *testing.T, doc string) *formats.Collada {
	t.Helper()
	c, err := formats.ParseCollada([]byte(doc))
	require.NoError(t, err)
	return c
}

func parseXCD(t *testing.T, doc string) *formats.XCD {
	t.Helper()
	x, err := formats.ParseXCD([]byte(doc))
	require.NoError(t, err)
	return x
}
