// Package formats provides parsers for the interchange documents the asset
// importer reads: COLLADA geometry/scene documents and XCD stage descriptors.
package formats

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Faultbox/assetimport/pkg/encoding"
)

// COLLADA format errors.
var (
	ErrInvalidCollada = errors.New("invalid COLLADA document")
	ErrMalformedArray = errors.New("malformed numeric array")
)

// Input semantics used by polygon lists and <vertices>.
const (
	SemanticVertex   = "VERTEX"
	SemanticPosition = "POSITION"
	SemanticNormal   = "NORMAL"
	SemanticTexcoord = "TEXCOORD"
)

// Collada is the subset of a COLLADA 1.4/1.5 document the importer reads.
type Collada struct {
	XMLName      xml.Name        `xml:"COLLADA"`
	Version      string          `xml:"version,attr"`
	Asset        *Asset          `xml:"asset"`
	Images       []Image         `xml:"library_images>image"`
	Effects      []Effect        `xml:"library_effects>effect"`
	Materials    []Material      `xml:"library_materials>material"`
	Geometries   GeometryLibrary `xml:"library_geometries"`
	VisualScenes []VisualScene   `xml:"library_visual_scenes>visual_scene"`
	Scene        *SceneInstance  `xml:"scene"`
}

// Asset holds document metadata.
type Asset struct {
	Tool   string `xml:"contributor>authoring_tool"`
	UpAxis string `xml:"up_axis"`
	Unit   struct {
		Name  string  `xml:"name,attr"`
		Meter float32 `xml:"meter,attr"`
	} `xml:"unit"`
}

// GeometryLibrary is <library_geometries>.
type GeometryLibrary struct {
	Geometries []Geometry `xml:"geometry"`
}

// Geometry is a named mesh.
type Geometry struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Mesh *Mesh  `xml:"mesh"`
}

// Mesh holds the attribute sources and primitive lists of a geometry.
type Mesh struct {
	Sources   []Source    `xml:"source"`
	Vertices  *Vertices   `xml:"vertices"`
	PolyLists []PolyList  `xml:"polylist"`
	Triangles []Triangles `xml:"triangles"`
}

// Source is a float attribute array.
type Source struct {
	ID         string      `xml:"id,attr"`
	Name       string      `xml:"name,attr"`
	FloatArray *FloatArray `xml:"float_array"`
	Accessor   *Accessor   `xml:"technique_common>accessor"`
}

// FloatArray is <float_array>.
type FloatArray struct {
	ID    string `xml:"id,attr"`
	Count int    `xml:"count,attr"`
	Data  Floats `xml:",chardata"`
}

// Accessor describes how a source array is strided.
type Accessor struct {
	Source string `xml:"source,attr"`
	Count  int    `xml:"count,attr"`
	Stride int    `xml:"stride,attr"`
}

// Vertices is <vertices>: the per-vertex inputs referenced by a VERTEX input.
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Input binds a semantic to a source at an offset of the index stream.
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   int    `xml:"offset,attr"`
	Set      int    `xml:"set,attr"`
}

// PolyList is <polylist>: polygons with per-polygon corner counts.
type PolyList struct {
	Material string  `xml:"material,attr"`
	Count    int     `xml:"count,attr"`
	Inputs   []Input `xml:"input"`
	VCount   Ints    `xml:"vcount"`
	P        Ints    `xml:"p"`
}

// Triangles is <triangles>: a polygon list whose corner count is always 3.
type Triangles struct {
	Material string  `xml:"material,attr"`
	Count    int     `xml:"count,attr"`
	Inputs   []Input `xml:"input"`
	P        Ints    `xml:"p"`
}

// Image is an <image> of library_images.
type Image struct {
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr"`
	InitFrom InitFrom `xml:"init_from"`
}

// InitFrom holds an image path, either inline (1.4) or in <ref> (1.5).
type InitFrom struct {
	Value string `xml:",chardata"`
	Ref   string `xml:"ref"`
}

// Path returns the referenced file path.
func (i InitFrom) Path() string {
	if ref := strings.TrimSpace(i.Ref); ref != "" {
		return ref
	}
	return strings.TrimSpace(i.Value)
}

// Effect is an <effect> of library_effects.
type Effect struct {
	ID      string         `xml:"id,attr"`
	Name    string         `xml:"name,attr"`
	Profile *ProfileCommon `xml:"profile_COMMON"`
}

// ProfileCommon is <profile_COMMON>.
type ProfileCommon struct {
	Params    []NewParam `xml:"newparam"`
	Technique Technique  `xml:"technique"`
}

// Param returns the newparam with the given sid, or nil.
func (p *ProfileCommon) Param(sid string) *NewParam {
	for i := range p.Params {
		if p.Params[i].SID == sid {
			return &p.Params[i]
		}
	}
	return nil
}

// NewParam is a <newparam> declaring a surface or sampler.
type NewParam struct {
	SID       string     `xml:"sid,attr"`
	Surface   *Surface   `xml:"surface"`
	Sampler2D *Sampler2D `xml:"sampler2D"`
}

// Surface is a <surface> param pointing at an image.
type Surface struct {
	Type     string `xml:"type,attr"`
	InitFrom string `xml:"init_from"`
}

// Sampler2D is a <sampler2D> param pointing at a surface (1.4) or an image (1.5).
type Sampler2D struct {
	Source        string       `xml:"source"`
	InstanceImage *InstanceURL `xml:"instance_image"`
}

// Technique is the shading technique of an effect.
type Technique struct {
	SID     string        `xml:"sid,attr"`
	Phong   *Shader       `xml:"phong"`
	Lambert *Shader       `xml:"lambert"`
	Blinn   *Shader       `xml:"blinn"`
	Extra   *ExtraSection `xml:"extra"`
}

// Shader returns the declared shading model, preferring phong over lambert
// over blinn.
func (t *Technique) Shader() *Shader {
	switch {
	case t.Phong != nil:
		return t.Phong
	case t.Lambert != nil:
		return t.Lambert
	default:
		return t.Blinn
	}
}

// Shader holds the color-or-texture channels of a shading model.
type Shader struct {
	Diffuse     *ColorOrTexture `xml:"diffuse"`
	Specular    *ColorOrTexture `xml:"specular"`
	Transparent *ColorOrTexture `xml:"transparent"`
}

// ColorOrTexture is a channel value: either a constant color or a texture.
type ColorOrTexture struct {
	Color   Floats      `xml:"color"`
	Texture *TextureRef `xml:"texture"`
}

// TextureRef references a sampler param (or an image id directly).
type TextureRef struct {
	Texture  string `xml:"texture,attr"`
	TexCoord string `xml:"texcoord,attr"`
}

// ExtraSection is <extra>, holding tool-specific techniques.
type ExtraSection struct {
	Techniques []ExtraTechnique `xml:"technique"`
}

// ExtraTechnique is a tool-specific technique (FCOLLADA, OpenCOLLADA...).
type ExtraTechnique struct {
	Profile string          `xml:"profile,attr"`
	Bump    *ColorOrTexture `xml:"bump"`
}

// Material is a <material> of library_materials.
type Material struct {
	ID             string      `xml:"id,attr"`
	Name           string      `xml:"name,attr"`
	InstanceEffect InstanceURL `xml:"instance_effect"`
}

// InstanceURL is any element carrying a url attribute.
type InstanceURL struct {
	URL string `xml:"url,attr"`
}

// VisualScene is a <visual_scene> node tree.
type VisualScene struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Nodes []Node `xml:"node"`
}

// SceneInstance is <scene>.
type SceneInstance struct {
	VisualScene InstanceURL `xml:"instance_visual_scene"`
}

// Node is a scene-graph node.
type Node struct {
	ID               string       `xml:"id,attr"`
	Name             string       `xml:"name,attr"`
	SID              string       `xml:"sid,attr"`
	Type             string       `xml:"type,attr"`
	Translate        *SIDValues   `xml:"translate"`
	Rotate           []SIDValues  `xml:"rotate"`
	Scale            *SIDValues   `xml:"scale"`
	InstanceGeometry *InstanceURL `xml:"instance_geometry"`
	Children         []Node       `xml:"node"`
}

// SIDValues is a transform element: a sid tag and its float data.
type SIDValues struct {
	SID  string `xml:"sid,attr"`
	Data Floats `xml:",chardata"`
}

// Geometry returns the geometry with the given id, or nil.
func (c *Collada) Geometry(id string) *Geometry {
	for i := range c.Geometries.Geometries {
		if c.Geometries.Geometries[i].ID == id {
			return &c.Geometries.Geometries[i]
		}
	}
	return nil
}

// Image returns the image with the given id, or nil.
func (c *Collada) Image(id string) *Image {
	for i := range c.Images {
		if c.Images[i].ID == id {
			return &c.Images[i]
		}
	}
	return nil
}

// Effect returns the effect with the given id, or nil.
func (c *Collada) Effect(id string) *Effect {
	for i := range c.Effects {
		if c.Effects[i].ID == id {
			return &c.Effects[i]
		}
	}
	return nil
}

// ActiveScene returns the visual scene instanced by <scene>, falling back to
// the first visual scene. Returns nil when the document has none.
func (c *Collada) ActiveScene() *VisualScene {
	if len(c.VisualScenes) == 0 {
		return nil
	}
	if c.Scene != nil {
		id := encoding.TrimFragment(c.Scene.VisualScene.URL)
		for i := range c.VisualScenes {
			if c.VisualScenes[i].ID == id {
				return &c.VisualScenes[i]
			}
		}
	}
	return &c.VisualScenes[0]
}

// Source returns the source with the given id ('#' optional), or nil.
func (m *Mesh) Source(id string) *Source {
	id = encoding.TrimFragment(id)
	for i := range m.Sources {
		if m.Sources[i].ID == id {
			return &m.Sources[i]
		}
	}
	return nil
}

// Stride returns the accessor stride, or def when the source declares none.
func (s *Source) Stride(def int) int {
	if s.Accessor != nil && s.Accessor.Stride > 0 {
		return s.Accessor.Stride
	}
	return def
}

// Floats returns the source data, or nil when it has no float array.
func (s *Source) Floats() []float32 {
	if s.FloatArray == nil {
		return nil
	}
	return s.FloatArray.Data
}

// Input returns the first input with the given semantic, or nil.
func (p *PolyList) Input(semantic string) *Input {
	return findInput(p.Inputs, semantic)
}

// Input returns the first input with the given semantic, or nil.
func (v *Vertices) Input(semantic string) *Input {
	return findInput(v.Inputs, semantic)
}

// Stride returns the number of indices per corner (max offset + 1).
func (p *PolyList) Stride() int {
	stride := 0
	for _, in := range p.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	return stride
}

// PolyList converts the triangle list into a polygon list with a corner
// count of 3 per triangle.
func (t *Triangles) PolyList() PolyList {
	pl := PolyList{
		Material: t.Material,
		Count:    t.Count,
		Inputs:   t.Inputs,
		P:        t.P,
	}
	count := t.Count
	if stride := pl.Stride(); count <= 0 && stride > 0 {
		count = len(t.P) / (stride * 3)
	}
	if count < 0 {
		count = 0
	}
	pl.VCount = make(Ints, count)
	for i := range pl.VCount {
		pl.VCount[i] = 3
	}
	return pl
}

// Primitives returns the polygon lists of the mesh followed by its triangle
// lists converted to polygon lists.
func (m *Mesh) Primitives() []PolyList {
	out := make([]PolyList, 0, len(m.PolyLists)+len(m.Triangles))
	out = append(out, m.PolyLists...)
	for i := range m.Triangles {
		out = append(out, m.Triangles[i].PolyList())
	}
	return out
}

func findInput(inputs []Input, semantic string) *Input {
	for i := range inputs {
		if inputs[i].Semantic == semantic {
			return &inputs[i]
		}
	}
	return nil
}

// newDecoder returns an XML decoder that understands non-UTF-8 documents.
func newDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = encoding.CharsetReader
	return d
}

// DecodeCollada reads a COLLADA document from r.
func DecodeCollada(r io.Reader) (*Collada, error) {
	doc := &Collada{}
	if err := newDecoder(r).Decode(doc); err != nil {
		if errors.Is(err, ErrMalformedArray) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCollada, err)
	}
	return doc, nil
}

// ParseCollada parses a COLLADA document from memory.
func ParseCollada(data []byte) (*Collada, error) {
	return DecodeCollada(bytes.NewReader(data))
}

// ParseColladaFile parses a COLLADA document from disk.
func ParseColladaFile(path string) (*Collada, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading COLLADA file: %w", err)
	}
	return ParseCollada(data)
}
