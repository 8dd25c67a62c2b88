package importer

import (
	"fmt"

	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/math"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// stageDecoder holds the state of one DecodeStage call.
type stageDecoder struct {
	resolve ResolveFunc
	refs    ReferenceTable

	cameras []resource.StageCameraElement
	lights  []resource.StageLightElement
	models  []resource.StageModelElement
}

// DecodeStage converts a stage document into a StageResource. Element links
// are resolved through fn (nil keeps them as written) into the reference
// table of the result.
func DecodeStage(doc *formats.XCD, fn ResolveFunc) (*resource.StageResource, error) {
	if doc.Scene == nil {
		return nil, ErrMissingScene
	}

	d := &stageDecoder{resolve: fn}
	for i := range doc.Scene.Cameras {
		if err := d.camera(&doc.Scene.Cameras[i]); err != nil {
			return nil, err
		}
	}
	for i := range doc.Scene.Lights {
		if err := d.light(&doc.Scene.Lights[i]); err != nil {
			return nil, err
		}
	}
	for i := range doc.Scene.Elements {
		if err := d.element(&doc.Scene.Elements[i]); err != nil {
			return nil, err
		}
	}

	return &resource.StageResource{
		Cameras:    d.cameras,
		Lights:     d.lights,
		Models:     d.models,
		References: d.refs.References(),
	}, nil
}

func (d *stageDecoder) camera(c *formats.XCDCamera) error {
	position, err := vec3Or(c.Position, "position", math.Vec3{})
	if err != nil {
		return fmt.Errorf("camera %q: %w", c.ID, err)
	}
	orientation, err := StageRotation(c.Orientation, "orientation")
	if err != nil {
		return fmt.Errorf("camera %q: %w", c.ID, err)
	}
	props, err := DecodeProperties(c.Properties())
	if err != nil {
		return fmt.Errorf("camera %q: %w", c.ID, err)
	}

	d.cameras = append(d.cameras, resource.StageCameraElement{
		ID:          c.ID,
		Position:    position,
		Orientation: orientation,
		FieldOfView: c.FieldOfView,
		LayerFlags:  layerFlags(c.Layers),
		Properties:  props,
	})
	return nil
}

func (d *stageDecoder) light(l *formats.XCDLight) error {
	kind, err := resource.ParseLightKind(l.Type)
	if err != nil {
		return fmt.Errorf("light %q: %w", l.ID, err)
	}
	el := resource.StageLightElement{
		ID:               l.ID,
		Kind:             kind,
		Intensity:        l.Intensity,
		AmbientIntensity: l.AmbientIntensity,
		SpotSize:         l.SpotSize,
		Angle:            l.Angle,
		Radius:           l.Radius,
		LayerFlags:       layerFlags(l.Layers),
	}

	if el.Location, err = optionalVec3(l.Location, "location"); err != nil {
		return fmt.Errorf("light %q: %w", l.ID, err)
	}
	if el.Direction, err = optionalVec3(l.Direction, "direction"); err != nil {
		return fmt.Errorf("light %q: %w", l.ID, err)
	}
	if el.Color, err = optionalVec3(l.Color, "color"); err != nil {
		return fmt.Errorf("light %q: %w", l.ID, err)
	}
	if el.Properties, err = DecodeProperties(l.Properties()); err != nil {
		return fmt.Errorf("light %q: %w", l.ID, err)
	}

	d.lights = append(d.lights, el)
	return nil
}

func (d *stageDecoder) element(e *formats.XCDElement) error {
	translation, err := vec3Or(e.Translation, "translation", math.Vec3{})
	if err != nil {
		return fmt.Errorf("element %q: %w", e.ID, err)
	}
	rotation, err := StageRotation(e.Rotation, "rotation")
	if err != nil {
		return fmt.Errorf("element %q: %w", e.ID, err)
	}
	scale, err := vec3Or(e.Scale, "scale", math.Vec3One())
	if err != nil {
		return fmt.Errorf("element %q: %w", e.ID, err)
	}
	props, err := DecodeProperties(e.Properties())
	if err != nil {
		return fmt.Errorf("element %q: %w", e.ID, err)
	}

	d.models = append(d.models, resource.StageModelElement{
		ID:          e.ID,
		Translation: translation,
		Rotation:    rotation,
		Scale:       scale,
		ReferenceID: int32(d.refs.Resolve(e.Link, d.resolve)),
		LayerFlags:  layerFlags(e.Layers),
		Properties:  props,
	})
	return nil
}

// StageRotation converts a stored (angle, x, y, z) rotation, with the angle
// in turns, into (x, y, z, angle) with the angle in radians. An absent
// rotation is the zero Vec4.
func StageRotation(v *formats.Floats, name string) (math.Vec4, error) {
	if v == nil {
		return math.Vec4{}, nil
	}
	if len(*v) != 4 {
		return math.Vec4{}, invalidVector(name, v, 4)
	}
	f := *v
	return math.Vec4{X: f[1], Y: f[2], Z: f[3], W: math.TurnsToRad(f[0])}, nil
}

// vec3Or decodes v, or returns def when the document omits it.
func vec3Or(v *formats.Floats, name string, def math.Vec3) (math.Vec3, error) {
	if v == nil {
		return def, nil
	}
	if len(*v) != 3 {
		return math.Vec3{}, invalidVector(name, v, 3)
	}
	f := *v
	return math.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

func optionalVec3(v *formats.Floats, name string) (*math.Vec3, error) {
	if v == nil {
		return nil, nil
	}
	out, err := vec3Or(v, name, math.Vec3{})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func invalidVector(name string, v *formats.Floats, want int) error {
	return fmt.Errorf("%w: %s has %d components, want %d", ErrInvalidVector, name, len(*v), want)
}

func layerFlags(b *formats.Bools) []bool {
	if b == nil || len(*b) == 0 {
		return nil
	}
	return append([]bool(nil), (*b)...)
}
