package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const quadDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <asset><up_axis>Z_UP</up_axis><unit name="meter" meter="1"/></asset>
  <library_images>
    <image id="brick-img"><init_from>textures/brick%20red.png</init_from></image>
  </library_images>
  <library_effects>
    <effect id="brick-fx">
      <profile_COMMON>
        <newparam sid="brick-surface"><surface type="2D"><init_from>brick-img</init_from></surface></newparam>
        <newparam sid="brick-sampler"><sampler2D><source>brick-surface</source></sampler2D></newparam>
        <technique sid="common">
          <phong><diffuse><texture texture="brick-sampler" texcoord="UVMap"/></diffuse></phong>
        </technique>
      </profile_COMMON>
    </effect>
  </library_effects>
  <library_materials>
    <material id="brick" name="brick"><instance_effect url="#brick-fx"/></material>
  </library_materials>
  <library_geometries>
    <geometry id="quad" name="quad">
      <mesh>
        <source id="quad-pos">
          <float_array id="quad-pos-array" count="12">0 0 0  1 0 0  1 1 0  0 1 0</float_array>
          <technique_common><accessor source="#quad-pos-array" count="4" stride="3"/></technique_common>
        </source>
        <source id="quad-uv">
          <float_array id="quad-uv-array" count="8">0 0 1 0 1 1 0 1</float_array>
          <technique_common><accessor source="#quad-uv-array" count="4" stride="2"/></technique_common>
        </source>
        <vertices id="quad-verts"><input semantic="POSITION" source="#quad-pos"/></vertices>
        <polylist material="brick" count="1">
          <input semantic="VERTEX" source="#quad-verts" offset="0"/>
          <input semantic="TEXCOORD" source="#quad-uv" offset="1" set="0"/>
          <vcount>4</vcount>
          <p>0 0 1 1 2 2 3 3</p>
        </polylist>
        <triangles material="brick" count="1">
          <input semantic="VERTEX" source="#quad-verts" offset="0"/>
          <p>0 1 2</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
  <library_visual_scenes>
    <visual_scene id="Scene">
      <node id="root">
        <node id="quad-node">
          <translate sid="location">1 2 3</translate>
          <rotate sid="rotationZ">0 0 1 90</rotate>
          <scale sid="scale">2 2 2</scale>
          <instance_geometry url="#quad"/>
        </node>
      </node>
    </visual_scene>
  </library_visual_scenes>
  <scene><instance_visual_scene url="#Scene"/></scene>
</COLLADA>`

func TestParseCollada(t *testing.T) {
	doc, err := ParseCollada([]byte(quadDAE))
	if err != nil {
		t.Fatalf("ParseCollada: %v", err)
	}

	if doc.Version != "1.4.1" {
		t.Errorf("version: got %q, want %q", doc.Version, "1.4.1")
	}
	if doc.Asset == nil || doc.Asset.UpAxis != "Z_UP" {
		t.Errorf("asset up axis not decoded: %+v", doc.Asset)
	}

	geom := doc.Geometry("quad")
	if geom == nil || geom.Mesh == nil {
		t.Fatal("geometry quad not decoded")
	}
	mesh := geom.Mesh

	pos := mesh.Source("#quad-pos")
	if pos == nil {
		t.Fatal("position source not found")
	}
	if got := len(pos.Floats()); got != 12 {
		t.Errorf("position floats: got %d, want 12", got)
	}
	if got := pos.Stride(0); got != 3 {
		t.Errorf("position stride: got %d, want 3", got)
	}

	if len(mesh.PolyLists) != 1 {
		t.Fatalf("polylists: got %d, want 1", len(mesh.PolyLists))
	}
	pl := mesh.PolyLists[0]
	if pl.Material != "brick" {
		t.Errorf("material: got %q, want %q", pl.Material, "brick")
	}
	if len(pl.VCount) != 1 || pl.VCount[0] != 4 {
		t.Errorf("vcount: got %v, want [4]", pl.VCount)
	}
	if len(pl.P) != 8 {
		t.Errorf("p: got %d indices, want 8", len(pl.P))
	}
	if got := pl.Stride(); got != 2 {
		t.Errorf("stride: got %d, want 2", got)
	}
	if in := pl.Input(SemanticTexcoord); in == nil || in.Offset != 1 {
		t.Errorf("texcoord input: got %+v", in)
	}
	if in := mesh.Vertices.Input(SemanticPosition); in == nil || in.Source != "#quad-pos" {
		t.Errorf("position input: got %+v", in)
	}

	prims := mesh.Primitives()
	if len(prims) != 2 {
		t.Fatalf("primitives: got %d, want 2", len(prims))
	}
	if len(prims[1].VCount) != 1 || prims[1].VCount[0] != 3 {
		t.Errorf("triangles vcount: got %v, want [3]", prims[1].VCount)
	}
}

func TestParseCollada_Scene(t *testing.T) {
	doc, err := ParseCollada([]byte(quadDAE))
	if err != nil {
		t.Fatalf("ParseCollada: %v", err)
	}

	scene := doc.ActiveScene()
	if scene == nil || scene.ID != "Scene" {
		t.Fatalf("active scene: got %+v", scene)
	}
	if len(scene.Nodes) != 1 || len(scene.Nodes[0].Children) != 1 {
		t.Fatalf("node tree not decoded: %+v", scene.Nodes)
	}

	node := scene.Nodes[0].Children[0]
	if node.InstanceGeometry == nil || node.InstanceGeometry.URL != "#quad" {
		t.Errorf("instance_geometry: got %+v", node.InstanceGeometry)
	}
	if node.Translate == nil || len(node.Translate.Data) != 3 || node.Translate.Data[2] != 3 {
		t.Errorf("translate: got %+v", node.Translate)
	}
	if len(node.Rotate) != 1 || node.Rotate[0].SID != "rotationZ" || node.Rotate[0].Data[3] != 90 {
		t.Errorf("rotate: got %+v", node.Rotate)
	}
	if node.Scale == nil || node.Scale.Data[0] != 2 {
		t.Errorf("scale: got %+v", node.Scale)
	}
}

func TestParseCollada_Materials(t *testing.T) {
	doc, err := ParseCollada([]byte(quadDAE))
	if err != nil {
		t.Fatalf("ParseCollada: %v", err)
	}

	if len(doc.Materials) != 1 || doc.Materials[0].InstanceEffect.URL != "#brick-fx" {
		t.Fatalf("materials: got %+v", doc.Materials)
	}
	fx := doc.Effect("brick-fx")
	if fx == nil || fx.Profile == nil {
		t.Fatal("effect not decoded")
	}
	shader := fx.Profile.Technique.Shader()
	if shader == nil || shader.Diffuse == nil || shader.Diffuse.Texture == nil {
		t.Fatal("phong diffuse texture not decoded")
	}
	if got := shader.Diffuse.Texture.Texture; got != "brick-sampler" {
		t.Errorf("diffuse texture: got %q, want %q", got, "brick-sampler")
	}
	sampler := fx.Profile.Param("brick-sampler")
	if sampler == nil || sampler.Sampler2D == nil || sampler.Sampler2D.Source != "brick-surface" {
		t.Errorf("sampler param: got %+v", sampler)
	}
	img := doc.Image("brick-img")
	if img == nil {
		t.Fatal("image not decoded")
	}
	if got := img.InitFrom.Path(); got != "textures/brick%20red.png" {
		t.Errorf("image path: got %q", got)
	}
}

func TestInitFrom_Path(t *testing.T) {
	tests := []struct {
		name string
		in   InitFrom
		want string
	}{
		{"inline", InitFrom{Value: " a.png "}, "a.png"},
		{"ref", InitFrom{Value: "\n", Ref: "b.png"}, "b.png"},
		{"empty", InitFrom{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Path(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCollada_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"wrong root", `<xcd/>`, ErrInvalidCollada},
		{"not xml", `hello`, ErrInvalidCollada},
		{
			"bad float",
			`<COLLADA><library_geometries><geometry id="g"><mesh><source id="s"><float_array>1 x 3</float_array></source></mesh></geometry></library_geometries></COLLADA>`,
			ErrMalformedArray,
		},
		{
			"bad index",
			`<COLLADA><library_geometries><geometry id="g"><mesh><polylist><p>0 1.5</p></polylist></mesh></geometry></library_geometries></COLLADA>`,
			ErrMalformedArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCollada([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCollada_Latin1(t *testing.T) {
	// "café" in ISO-8859-1
	data := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><COLLADA><library_geometries><geometry id="g" name="caf`), 0xE9)
	data = append(data, []byte(`"/></library_geometries></COLLADA>`)...)

	doc, err := ParseCollada(data)
	if err != nil {
		t.Fatalf("ParseCollada: %v", err)
	}
	if got := doc.Geometries.Geometries[0].Name; got != "café" {
		t.Errorf("got %q, want %q", got, "café")
	}
}

func TestParseColladaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.dae")
	if err := os.WriteFile(path, []byte(quadDAE), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseColladaFile(path)
	if err != nil {
		t.Fatalf("ParseColladaFile: %v", err)
	}
	if doc.Geometry("quad") == nil {
		t.Error("geometry quad not decoded")
	}

	if _, err := ParseColladaFile(filepath.Join(t.TempDir(), "missing.dae")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTriangles_PolyList(t *testing.T) {
	tri := Triangles{
		Inputs: []Input{{Semantic: SemanticVertex, Offset: 0}, {Semantic: SemanticNormal, Offset: 1}},
		P:      Ints{0, 0, 1, 1, 2, 2, 2, 2, 3, 3, 0, 0},
	}

	pl := tri.PolyList()
	if len(pl.VCount) != 2 {
		t.Fatalf("vcount: got %v, want two triangles", pl.VCount)
	}
	for i, n := range pl.VCount {
		if n != 3 {
			t.Errorf("vcount[%d]: got %d, want 3", i, n)
		}
	}
}
