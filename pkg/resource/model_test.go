package resource

import (
	"errors"
	"testing"

	"github.com/Faultbox/assetimport/pkg/math"
)

func TestModelPart_Triangles(t *testing.T) {
	part := ModelPart{
		Polygons: []Polygon{
			{Indices: []uint32{0, 1, 2}},
			{Indices: []uint32{3, 4, 5, 6}},
			{Indices: []uint32{7, 8, 9, 10, 11}},
		},
	}

	got := part.Triangles()
	want := []uint32{
		0, 1, 2,
		3, 4, 5, 3, 5, 6,
		7, 8, 9, 7, 9, 10, 7, 10, 11,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d indices, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNewModelResourceGroup(t *testing.T) {
	g := NewModelResourceGroup("crate")

	if g.Name != "crate" {
		t.Errorf("name: got %q, want %q", g.Name, "crate")
	}
	if g.Offset != (math.Vec3{}) {
		t.Errorf("offset: got %v, want zero", g.Offset)
	}
	if g.Scale != math.Vec3One() {
		t.Errorf("scale: got %v, want one", g.Scale)
	}
	if g.Rotation != math.QuatIdentity() {
		t.Errorf("rotation: got %v, want identity", g.Rotation)
	}
	if g.Matrix() != math.Identity() {
		t.Errorf("matrix: got %v, want identity", g.Matrix())
	}
}

func TestModelResourceGroup_Counts(t *testing.T) {
	g := NewModelResourceGroup("g")
	g.Parts = []ModelPart{
		{Positions: make([]math.Vec3, 6), Polygons: make([]Polygon, 2)},
		{Positions: make([]math.Vec3, 4), Polygons: make([]Polygon, 1)},
	}

	if got := g.PolygonCount(); got != 3 {
		t.Errorf("polygons: got %d, want 3", got)
	}
	if got := g.CornerCount(); got != 10 {
		t.Errorf("corners: got %d, want 10", got)
	}
}

func TestModelResourceGroup_TriangleCount(t *testing.T) {
	g := NewModelResourceGroup("g")
	g.Parts = []ModelPart{
		{Polygons: []Polygon{{Indices: []uint32{0, 1, 2}}, {Indices: []uint32{3, 4, 5, 6}}}},
		{Polygons: []Polygon{{Indices: []uint32{0, 1, 2, 3, 4}}}},
	}

	if got := g.TriangleCount(); got != 6 {
		t.Errorf("triangles: got %d, want 6", got)
	}
}

func TestModelResourceGroup_Bounds(t *testing.T) {
	g := NewModelResourceGroup("g")
	if _, _, ok := g.Bounds(); ok {
		t.Fatal("empty group reports bounds")
	}

	g.Parts = []ModelPart{
		{Positions: []math.Vec3{{X: -1, Y: 0, Z: 0}, {X: 1, Y: 2, Z: 0}}},
		{Positions: []math.Vec3{{X: 0, Y: 0, Z: 3}}},
	}
	g.Offset = math.Vec3{X: 10}
	g.Scale = math.Vec3{X: 2, Y: 2, Z: 2}

	lo, hi, ok := g.Bounds()
	if !ok {
		t.Fatal("bounds not reported")
	}
	if want := (math.Vec3{X: 8, Y: 0, Z: 0}); lo != want {
		t.Errorf("lo: got %v, want %v", lo, want)
	}
	if want := (math.Vec3{X: 12, Y: 4, Z: 6}); hi != want {
		t.Errorf("hi: got %v, want %v", hi, want)
	}
}

func TestStageModelElement_Facing(t *testing.T) {
	tests := []struct {
		name     string
		rotation math.Vec4
		want     math.Vec3
	}{
		{"zero rotation", math.Vec4{}, math.Vec3{Z: 1}},
		{"quarter turn about Y", math.Vec4{Y: 1, W: math.Pi / 2}, math.Vec3{X: 1}},
		{"half turn about unnormalized Y", math.Vec4{Y: 4, W: math.Pi}, math.Vec3{Z: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &StageModelElement{Rotation: tt.rotation}
			got := e.Facing()
			d := got.Sub(tt.want)
			if d.Length() > 1e-5 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if got := (&StageModelElement{}).Orientation(); got != math.QuatIdentity() {
		t.Errorf("zero axis orientation: got %v, want identity", got)
	}
}

func TestMaterial_Textures(t *testing.T) {
	m := Material{Name: "m"}
	if m.HasTextures() {
		t.Error("empty material reports textures")
	}

	*m.Textures()[3] = "alpha.png"
	if m.AlphaTexture != "alpha.png" {
		t.Errorf("alpha: got %q, want %q", m.AlphaTexture, "alpha.png")
	}
	if !m.HasTextures() {
		t.Error("material with alpha texture reports none")
	}
}

func TestParseLightKind(t *testing.T) {
	tests := []struct {
		tag     string
		want    LightKind
		wantErr bool
	}{
		{"Spot", LightSpot, false},
		{"Direction", LightDirection, false},
		{"Directional", LightDirection, false},
		{"point", LightPoint, false},
		{"Unknown", LightUnknown, false},
		{"Area", LightUnknown, true},
		{"", LightUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseLightKind(tt.tag)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownLightKind) {
					t.Errorf("got %v, want %v", err, ErrUnknownLightKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLightKind_String(t *testing.T) {
	tests := []struct {
		kind LightKind
		want string
	}{
		{LightSpot, "Spot"},
		{LightDirection, "Direction"},
		{LightPoint, "Point"},
		{LightKind(9), "Unknown(9)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestParsePropertyType(t *testing.T) {
	for _, pt := range []PropertyType{PropertyString, PropertyFloat, PropertyInt} {
		got, err := ParsePropertyType(pt.String())
		if err != nil {
			t.Fatalf("%s: %v", pt, err)
		}
		if got != pt {
			t.Errorf("got %v, want %v", got, pt)
		}
	}

	if _, err := ParsePropertyType("Vector"); !errors.Is(err, ErrUnsupportedPropertyType) {
		t.Errorf("got %v, want %v", err, ErrUnsupportedPropertyType)
	}
}

func TestStageResource_Reference(t *testing.T) {
	s := &StageResource{References: []string{"a", "b"}}

	tests := []struct {
		id   int32
		want string
	}{
		{0, "a"},
		{1, "b"},
		{-1, ""},
		{2, ""},
	}
	for _, tt := range tests {
		if got := s.Reference(&StageModelElement{ReferenceID: tt.id}); got != tt.want {
			t.Errorf("id %d: got %q, want %q", tt.id, got, tt.want)
		}
	}
}
