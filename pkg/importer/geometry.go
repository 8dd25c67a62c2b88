package importer

import (
	"fmt"

	"github.com/Faultbox/assetimport/pkg/encoding"
	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/math"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// Options configures mesh import.
type Options struct {
	// Materials binds polygon list material references. Nil binds nothing.
	Materials MaterialBindings
	// TexturePrefix is joined in front of texture paths before hashing.
	TexturePrefix string
	// Hash turns texture paths into content keys. Defaults to ResourceHash.
	Hash HashFunc
	// Target restricts decoding to one geometry id.
	Target string
}

func (o Options) hash() HashFunc {
	if o.Hash != nil {
		return o.Hash
	}
	return ResourceHash
}

// attribute is one float source read through an index stream.
type attribute struct {
	data   []float32
	stride int
	offset int
}

func (a *attribute) read(index uint32, width int) ([]float32, error) {
	start := int(index) * a.stride
	if start+width > len(a.data) {
		return nil, fmt.Errorf("%w: index %d of %d elements", ErrIndexOutOfRange, index, len(a.data)/a.stride)
	}
	return a.data[start : start+width], nil
}

// geometryDecoder holds the state of one DecodeGeometryLibrary call.
type geometryDecoder struct {
	opts   Options
	hash   HashFunc
	groups map[string]*resource.ModelResourceGroup
}

// DecodeGeometryLibrary decodes every geometry with polygon lists into a
// model group keyed by geometry id. When opts.Target is set only that
// geometry is decoded, and ErrGeometryNotFound is returned if it is absent.
func DecodeGeometryLibrary(library *formats.GeometryLibrary, opts Options) (map[string]*resource.ModelResourceGroup, error) {
	d := &geometryDecoder{
		opts:   opts,
		hash:   opts.hash(),
		groups: make(map[string]*resource.ModelResourceGroup),
	}

	for i := range library.Geometries {
		geom := &library.Geometries[i]
		if opts.Target != "" && geom.ID != opts.Target {
			continue
		}
		if err := d.decodeGeometry(geom); err != nil {
			return nil, err
		}
	}

	if opts.Target != "" {
		if _, ok := d.groups[opts.Target]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrGeometryNotFound, opts.Target)
		}
	}
	return d.groups, nil
}

func (d *geometryDecoder) decodeGeometry(geom *formats.Geometry) error {
	if geom.Mesh == nil {
		return nil
	}
	prims := geom.Mesh.Primitives()
	if len(prims) == 0 {
		return nil
	}

	name := geom.Name
	if name == "" {
		name = geom.ID
	}

	group := resource.NewModelResourceGroup(geom.ID)
	for i := range prims {
		part, err := d.decodePolyList(geom.Mesh, &prims[i])
		if err != nil {
			return fmt.Errorf("geometry %q, primitive %d: %w", geom.ID, i, err)
		}
		part.Name = name
		group.Parts = append(group.Parts, *part)
	}
	d.groups[geom.ID] = group
	return nil
}

func (d *geometryDecoder) decodePolyList(mesh *formats.Mesh, pl *formats.PolyList) (*resource.ModelPart, error) {
	vertexIn := pl.Input(formats.SemanticVertex)
	if vertexIn == nil {
		return nil, fmt.Errorf("%w: no %s input", ErrMissingMeshData, formats.SemanticVertex)
	}
	if mesh.Vertices == nil {
		return nil, fmt.Errorf("%w: no <vertices>", ErrMissingMeshData)
	}
	if src := encoding.TrimFragment(vertexIn.Source); src != mesh.Vertices.ID {
		return nil, fmt.Errorf("%w: input %q, vertices %q", ErrVertexSourceMismatch, src, mesh.Vertices.ID)
	}

	position, err := vertexAttribute(mesh, vertexIn.Offset, formats.SemanticPosition, 3)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, fmt.Errorf("%w: no %s input in <vertices>", ErrMissingMeshData, formats.SemanticPosition)
	}
	normal, err := polyAttribute(mesh, pl, vertexIn.Offset, formats.SemanticNormal, 3)
	if err != nil {
		return nil, err
	}
	texcoord, err := polyAttribute(mesh, pl, vertexIn.Offset, formats.SemanticTexcoord, 2)
	if err != nil {
		return nil, err
	}

	streams, count, err := deinterleave(pl)
	if err != nil {
		return nil, err
	}

	part := &resource.ModelPart{}
	cursor := 0
	for n, corners := range pl.VCount {
		if corners < 3 {
			return nil, fmt.Errorf("%w: polygon %d has %d", ErrDegeneratePolygon, n, corners)
		}
		if cursor+corners > count {
			return nil, fmt.Errorf("%w: polygon %d needs corner %d of %d", ErrIndexOutOfRange, n, cursor+corners, count)
		}

		poly := resource.Polygon{Indices: make([]uint32, corners)}
		for c := 0; c < corners; c++ {
			corner := cursor + c
			p, err := position.read(streams[position.offset][corner], 3)
			if err != nil {
				return nil, fmt.Errorf("position: %w", err)
			}
			var nv math.Vec3
			if normal != nil {
				v, err := normal.read(streams[normal.offset][corner], 3)
				if err != nil {
					return nil, fmt.Errorf("normal: %w", err)
				}
				nv = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
			}
			var uv math.Vec2
			if texcoord != nil {
				v, err := texcoord.read(streams[texcoord.offset][corner], 2)
				if err != nil {
					return nil, fmt.Errorf("texcoord: %w", err)
				}
				uv = math.Vec2{X: v[0], Y: v[1]}
			}

			poly.Indices[c] = uint32(len(part.Positions))
			part.Positions = append(part.Positions, math.Vec3{X: p[0], Y: p[1], Z: p[2]})
			part.Normals = append(part.Normals, nv)
			part.Texcoords = append(part.Texcoords, uv)
		}
		part.Polygons = append(part.Polygons, poly)
		cursor += corners
	}

	if mat, ok := bindMaterial(d.opts.Materials, pl.Material, d.opts.TexturePrefix, d.hash); ok {
		part.Materials = append(part.Materials, mat)
	}
	return part, nil
}

// deinterleave splits the index stream into one stream per distinct input
// offset. Inputs sharing an offset share a stream.
func deinterleave(pl *formats.PolyList) (map[int][]uint32, int, error) {
	for _, in := range pl.Inputs {
		if in.Offset < 0 {
			return nil, 0, fmt.Errorf("%w: negative offset %d for %s", ErrIndexOutOfRange, in.Offset, in.Semantic)
		}
	}
	stride := pl.Stride()
	if stride <= 0 {
		return nil, 0, fmt.Errorf("%w: no inputs", ErrIndexOutOfRange)
	}
	if len(pl.P)%stride != 0 {
		return nil, 0, fmt.Errorf("%w: %d indices, stride %d", ErrTruncatedIndices, len(pl.P), stride)
	}
	count := len(pl.P) / stride

	streams := make(map[int][]uint32, len(pl.Inputs))
	for _, in := range pl.Inputs {
		if _, ok := streams[in.Offset]; ok {
			continue
		}
		stream := make([]uint32, count)
		for i := range stream {
			v := pl.P[i*stride+in.Offset]
			if v < 0 {
				return nil, 0, fmt.Errorf("%w: negative index %d", ErrIndexOutOfRange, v)
			}
			stream[i] = uint32(v)
		}
		streams[in.Offset] = stream
	}
	return streams, count, nil
}

// vertexAttribute returns the <vertices> input of the given semantic read
// through the VERTEX offset, or nil when <vertices> does not declare it.
func vertexAttribute(mesh *formats.Mesh, vertexOffset int, semantic string, width int) (*attribute, error) {
	in := mesh.Vertices.Input(semantic)
	if in == nil {
		return nil, nil
	}
	return sourceAttribute(mesh, in.Source, vertexOffset, semantic, width)
}

// polyAttribute returns the polygon list input of the given semantic,
// falling back to a <vertices> input of the same semantic.
func polyAttribute(mesh *formats.Mesh, pl *formats.PolyList, vertexOffset int, semantic string, width int) (*attribute, error) {
	in := pl.Input(semantic)
	if in == nil {
		return vertexAttribute(mesh, vertexOffset, semantic, width)
	}
	return sourceAttribute(mesh, in.Source, in.Offset, semantic, width)
}

func sourceAttribute(mesh *formats.Mesh, id string, offset int, semantic string, width int) (*attribute, error) {
	src := mesh.Source(id)
	if src == nil || src.FloatArray == nil {
		return nil, fmt.Errorf("%w: %s source %q", ErrMissingMeshData, semantic, id)
	}
	stride := src.Stride(width)
	if stride < width {
		return nil, fmt.Errorf("%w: %s source %q has stride %d", ErrMissingMeshData, semantic, id, stride)
	}
	return &attribute{data: src.Floats(), stride: stride, offset: offset}, nil
}
