package resource

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/assetimport/pkg/math"
)

// Codec errors.
var (
	ErrInvalidResourceMagic       = errors.New("invalid resource magic")
	ErrUnsupportedResourceVersion = errors.New("unsupported resource version")
	ErrTruncatedResource          = errors.New("truncated resource data")
	ErrCorruptResource            = errors.New("corrupt resource data")
)

// Binary layout identifiers.
const (
	ModelMagic = "AIMG"
	StageMagic = "AIST"

	// CodecVersion is the current layout version of both resource kinds.
	CodecVersion uint16 = 1

	maxCount = 1 << 26
)

// Light vector presence flags.
const (
	lightHasLocation  = 1 << 0
	lightHasDirection = 1 << 1
	lightHasColor     = 1 << 2
)

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) write(v any) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) count(n int) { e.write(uint32(n)) }

func (e *encoder) str(s string) {
	e.count(len(s))
	if e.err == nil {
		_, e.err = e.w.WriteString(s)
	}
}

func (e *encoder) vec3(v math.Vec3) { e.write([3]float32{v.X, v.Y, v.Z}) }

func (e *encoder) vec4(v math.Vec4) { e.write([4]float32{v.X, v.Y, v.Z, v.W}) }

func (e *encoder) flags(fs []bool) {
	e.count(len(fs))
	for _, f := range fs {
		e.write(f)
	}
}

func (e *encoder) properties(props []StageProperty) {
	e.count(len(props))
	for _, p := range props {
		e.write(uint8(p.Type()))
		e.str(p.PropertyID())
		switch v := p.(type) {
		case StringProperty:
			e.str(v.Value)
		case FloatProperty:
			e.write(v.Value)
		case IntProperty:
			e.write(v.Value)
		}
	}
}

func (e *encoder) header(magic string) {
	if e.err == nil {
		_, e.err = e.w.WriteString(magic)
	}
	e.write(CodecVersion)
}

func (e *encoder) finish() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type decoder struct {
	r   *bufio.Reader
	err error
}

func (d *decoder) read(v any) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			d.err = fmt.Errorf("%w: %v", ErrTruncatedResource, err)
			return
		}
		d.err = err
	}
}

func (d *decoder) count() int {
	var n uint32
	d.read(&n)
	if d.err == nil && n > maxCount {
		d.err = fmt.Errorf("%w: count %d", ErrCorruptResource, n)
	}
	if d.err != nil {
		return 0
	}
	return int(n)
}

func (d *decoder) str() string {
	n := d.count()
	if d.err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.err = fmt.Errorf("%w: %v", ErrTruncatedResource, err)
		return ""
	}
	return string(buf)
}

func (d *decoder) f32() float32 {
	var v float32
	d.read(&v)
	return v
}

func (d *decoder) vec3() math.Vec3 {
	var v [3]float32
	d.read(&v)
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func (d *decoder) vec4() math.Vec4 {
	var v [4]float32
	d.read(&v)
	return math.Vec4{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

func (d *decoder) flags() []bool {
	n := d.count()
	if n == 0 {
		return nil
	}
	fs := make([]bool, n)
	for i := range fs {
		d.read(&fs[i])
	}
	return fs
}

func (d *decoder) properties() []StageProperty {
	n := d.count()
	if n == 0 {
		return nil
	}
	props := make([]StageProperty, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		var tag uint8
		d.read(&tag)
		id := d.str()
		switch PropertyType(tag) {
		case PropertyString:
			props = append(props, StringProperty{ID: id, Value: d.str()})
		case PropertyFloat:
			props = append(props, FloatProperty{ID: id, Value: d.f32()})
		case PropertyInt:
			var v int32
			d.read(&v)
			props = append(props, IntProperty{ID: id, Value: v})
		default:
			if d.err == nil {
				d.err = fmt.Errorf("%w: property tag %d", ErrCorruptResource, tag)
			}
		}
	}
	return props
}

func (d *decoder) header(magic string) {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.err = fmt.Errorf("%w: %v", ErrTruncatedResource, err)
		return
	}
	if string(buf) != magic {
		d.err = fmt.Errorf("%w: got %q, want %q", ErrInvalidResourceMagic, buf, magic)
		return
	}
	var version uint16
	d.read(&version)
	if d.err == nil && version != CodecVersion {
		d.err = fmt.Errorf("%w: %d", ErrUnsupportedResourceVersion, version)
	}
}

// SaveModelGroups writes model groups in their binary form.
func SaveModelGroups(w io.Writer, groups []*ModelResourceGroup) error {
	e := &encoder{w: bufio.NewWriter(w)}
	e.header(ModelMagic)
	e.count(len(groups))
	for _, g := range groups {
		e.str(g.Name)
		e.vec3(g.Offset)
		e.write([4]float32{g.Rotation.X, g.Rotation.Y, g.Rotation.Z, g.Rotation.W})
		e.vec3(g.Scale)
		e.count(len(g.Parts))
		for i := range g.Parts {
			savePart(e, &g.Parts[i])
		}
	}
	return e.finish()
}

func savePart(e *encoder, p *ModelPart) {
	e.str(p.Name)
	e.count(len(p.Positions))
	for i := range p.Positions {
		var n math.Vec3
		var uv math.Vec2
		if i < len(p.Normals) {
			n = p.Normals[i]
		}
		if i < len(p.Texcoords) {
			uv = p.Texcoords[i]
		}
		e.vec3(p.Positions[i])
		e.vec3(n)
		e.write([2]float32{uv.X, uv.Y})
	}
	e.count(len(p.Polygons))
	for _, poly := range p.Polygons {
		e.count(len(poly.Indices))
		e.write(poly.Indices)
	}
	e.count(len(p.Materials))
	for _, m := range p.Materials {
		e.str(m.Name)
		for _, tex := range m.Textures() {
			e.str(*tex)
		}
	}
}

// LoadModelGroups reads model groups written by SaveModelGroups.
func LoadModelGroups(r io.Reader) ([]*ModelResourceGroup, error) {
	d := &decoder{r: bufio.NewReader(r)}
	d.header(ModelMagic)
	n := d.count()
	groups := make([]*ModelResourceGroup, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		g := &ModelResourceGroup{Name: d.str()}
		g.Offset = d.vec3()
		var q [4]float32
		d.read(&q)
		g.Rotation = math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}
		g.Scale = d.vec3()
		parts := d.count()
		if parts > 0 {
			g.Parts = make([]ModelPart, parts)
		}
		for j := 0; j < parts && d.err == nil; j++ {
			loadPart(d, &g.Parts[j])
		}
		groups = append(groups, g)
	}
	if d.err != nil {
		return nil, d.err
	}
	return groups, nil
}

func loadPart(d *decoder, p *ModelPart) {
	p.Name = d.str()
	corners := d.count()
	if corners > 0 {
		p.Positions = make([]math.Vec3, corners)
		p.Normals = make([]math.Vec3, corners)
		p.Texcoords = make([]math.Vec2, corners)
	}
	for i := 0; i < corners && d.err == nil; i++ {
		p.Positions[i] = d.vec3()
		p.Normals[i] = d.vec3()
		var uv [2]float32
		d.read(&uv)
		p.Texcoords[i] = math.Vec2{X: uv[0], Y: uv[1]}
	}
	polys := d.count()
	if polys > 0 {
		p.Polygons = make([]Polygon, polys)
	}
	for i := 0; i < polys && d.err == nil; i++ {
		idx := make([]uint32, d.count())
		d.read(idx)
		for _, ix := range idx {
			if d.err == nil && int(ix) >= corners {
				d.err = fmt.Errorf("%w: index %d of %d corners", ErrCorruptResource, ix, corners)
			}
		}
		p.Polygons[i].Indices = idx
	}
	mats := d.count()
	if mats > 0 {
		p.Materials = make([]Material, mats)
	}
	for i := 0; i < mats && d.err == nil; i++ {
		p.Materials[i].Name = d.str()
		for _, tex := range p.Materials[i].Textures() {
			*tex = d.str()
		}
	}
}

// SaveStage writes a stage in its binary form.
func SaveStage(w io.Writer, s *StageResource) error {
	e := &encoder{w: bufio.NewWriter(w)}
	e.header(StageMagic)

	e.count(len(s.Cameras))
	for _, c := range s.Cameras {
		e.str(c.ID)
		e.vec3(c.Position)
		e.vec4(c.Orientation)
		e.write(c.FieldOfView)
		e.flags(c.LayerFlags)
		e.properties(c.Properties)
	}

	e.count(len(s.Lights))
	for _, l := range s.Lights {
		e.str(l.ID)
		e.write(uint8(l.Kind))
		var present uint8
		if l.Location != nil {
			present |= lightHasLocation
		}
		if l.Direction != nil {
			present |= lightHasDirection
		}
		if l.Color != nil {
			present |= lightHasColor
		}
		e.write(present)
		for _, v := range []*math.Vec3{l.Location, l.Direction, l.Color} {
			if v != nil {
				e.vec3(*v)
			}
		}
		e.write([5]float32{l.Intensity, l.AmbientIntensity, l.SpotSize, l.Angle, l.Radius})
		e.flags(l.LayerFlags)
		e.properties(l.Properties)
	}

	e.count(len(s.Models))
	for _, m := range s.Models {
		e.str(m.ID)
		e.vec3(m.Translation)
		e.vec4(m.Rotation)
		e.vec3(m.Scale)
		e.write(m.ReferenceID)
		e.flags(m.LayerFlags)
		e.properties(m.Properties)
	}

	e.count(len(s.References))
	for _, ref := range s.References {
		e.str(ref)
	}
	return e.finish()
}

// LoadStage reads a stage written by SaveStage.
func LoadStage(r io.Reader) (*StageResource, error) {
	d := &decoder{r: bufio.NewReader(r)}
	d.header(StageMagic)
	s := &StageResource{}

	if n := d.count(); n > 0 {
		s.Cameras = make([]StageCameraElement, n)
		for i := 0; i < n && d.err == nil; i++ {
			c := &s.Cameras[i]
			c.ID = d.str()
			c.Position = d.vec3()
			c.Orientation = d.vec4()
			c.FieldOfView = d.f32()
			c.LayerFlags = d.flags()
			c.Properties = d.properties()
		}
	}

	if n := d.count(); n > 0 {
		s.Lights = make([]StageLightElement, n)
		for i := 0; i < n && d.err == nil; i++ {
			l := &s.Lights[i]
			l.ID = d.str()
			var kind, present uint8
			d.read(&kind)
			d.read(&present)
			l.Kind = LightKind(kind)
			if present&lightHasLocation != 0 {
				v := d.vec3()
				l.Location = &v
			}
			if present&lightHasDirection != 0 {
				v := d.vec3()
				l.Direction = &v
			}
			if present&lightHasColor != 0 {
				v := d.vec3()
				l.Color = &v
			}
			var scalars [5]float32
			d.read(&scalars)
			l.Intensity, l.AmbientIntensity, l.SpotSize, l.Angle, l.Radius =
				scalars[0], scalars[1], scalars[2], scalars[3], scalars[4]
			l.LayerFlags = d.flags()
			l.Properties = d.properties()
		}
	}

	if n := d.count(); n > 0 {
		s.Models = make([]StageModelElement, n)
		for i := 0; i < n && d.err == nil; i++ {
			m := &s.Models[i]
			m.ID = d.str()
			m.Translation = d.vec3()
			m.Rotation = d.vec4()
			m.Scale = d.vec3()
			d.read(&m.ReferenceID)
			m.LayerFlags = d.flags()
			m.Properties = d.properties()
		}
	}

	if n := d.count(); n > 0 {
		s.References = make([]string, n)
		for i := 0; i < n && d.err == nil; i++ {
			s.References[i] = d.str()
		}
	}

	if d.err != nil {
		return nil, d.err
	}
	for _, m := range s.Models {
		if m.ReferenceID < -1 || int(m.ReferenceID) >= len(s.References) {
			return nil, fmt.Errorf("%w: reference %d of %d", ErrCorruptResource, m.ReferenceID, len(s.References))
		}
	}
	return s, nil
}
