package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/assetimport/pkg/math"
)

// Stage errors.
var (
	ErrUnknownLightKind        = errors.New("unknown light kind")
	ErrUnsupportedPropertyType = errors.New("unsupported property type")
)

// LightKind is the type of a stage light.
type LightKind uint8

const (
	LightUnknown   LightKind = 0
	LightSpot      LightKind = 1
	LightDirection LightKind = 2
	LightPoint     LightKind = 3
)

// String returns a human-readable light kind name.
func (k LightKind) String() string {
	switch k {
	case LightUnknown:
		return "Unknown"
	case LightSpot:
		return "Spot"
	case LightDirection:
		return "Direction"
	case LightPoint:
		return "Point"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// ParseLightKind parses a light type tag. Matching ignores case, and
// "Directional" is accepted for LightDirection.
func ParseLightKind(tag string) (LightKind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "unknown":
		return LightUnknown, nil
	case "spot":
		return LightSpot, nil
	case "direction", "directional":
		return LightDirection, nil
	case "point":
		return LightPoint, nil
	default:
		return LightUnknown, fmt.Errorf("%w: %q", ErrUnknownLightKind, tag)
	}
}

// PropertyType tags the variant of a StageProperty.
type PropertyType uint8

const (
	PropertyString PropertyType = 1
	PropertyFloat  PropertyType = 2
	PropertyInt    PropertyType = 3
)

// String returns the tag as written in stage documents.
func (t PropertyType) String() string {
	switch t {
	case PropertyString:
		return "String"
	case PropertyFloat:
		return "Float"
	case PropertyInt:
		return "Int"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// ParsePropertyType parses a property type tag (case-insensitive).
func ParsePropertyType(tag string) (PropertyType, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "string":
		return PropertyString, nil
	case "float":
		return PropertyFloat, nil
	case "int":
		return PropertyInt, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPropertyType, tag)
	}
}

// StageProperty is a typed custom property: one of StringProperty,
// FloatProperty or IntProperty.
type StageProperty interface {
	PropertyID() string
	Type() PropertyType
	stageProperty()
}

// StringProperty is a text property.
type StringProperty struct {
	ID    string
	Value string
}

// FloatProperty is a 32-bit float property.
type FloatProperty struct {
	ID    string
	Value float32
}

// IntProperty is a signed 32-bit integer property.
type IntProperty struct {
	ID    string
	Value int32
}

func (p StringProperty) PropertyID() string { return p.ID }
func (p FloatProperty) PropertyID() string  { return p.ID }
func (p IntProperty) PropertyID() string    { return p.ID }

func (StringProperty) Type() PropertyType { return PropertyString }
func (FloatProperty) Type() PropertyType  { return PropertyFloat }
func (IntProperty) Type() PropertyType    { return PropertyInt }

func (StringProperty) stageProperty() {}
func (FloatProperty) stageProperty()  {}
func (IntProperty) stageProperty()    {}

// StageCameraElement is a camera placed on the stage. Orientation is an
// axis-angle (X, Y, Z, angle in radians).
type StageCameraElement struct {
	ID          string
	Position    math.Vec3
	Orientation math.Vec4
	FieldOfView float32
	LayerFlags  []bool
	Properties  []StageProperty
}

// StageLightElement is a light placed on the stage. Location, Direction and
// Color are nil when the document does not declare them.
type StageLightElement struct {
	ID               string
	Kind             LightKind
	Location         *math.Vec3
	Direction        *math.Vec3
	Color            *math.Vec3
	Intensity        float32
	AmbientIntensity float32
	SpotSize         float32
	Angle            float32
	Radius           float32
	LayerFlags       []bool
	Properties       []StageProperty
}

// StageModelElement is a model instance placed on the stage. ReferenceID
// indexes StageResource.References, or is -1 when the element has no link.
type StageModelElement struct {
	ID          string
	Translation math.Vec3
	Rotation    math.Vec4
	Scale       math.Vec3
	ReferenceID int32
	LayerFlags  []bool
	Properties  []StageProperty
}

// Orientation returns Rotation as a quaternion. A zero axis is no rotation.
func (e *StageModelElement) Orientation() math.Quat {
	axis := e.Rotation.XYZ().Normalize()
	if axis == (math.Vec3{}) {
		return math.QuatIdentity()
	}
	return math.QuatFromAxisAngle(axis, e.Rotation.W)
}

// Facing returns the element's local +Z axis in stage space.
func (e *StageModelElement) Facing() math.Vec3 {
	return e.Orientation().Rotate(math.Vec3{Z: 1})
}

// StageResource is a decoded stage. Empty categories are nil.
type StageResource struct {
	Cameras    []StageCameraElement
	Lights     []StageLightElement
	Models     []StageModelElement
	References []string
}

// Reference returns the reference string of a model element, or "" when it
// has none.
func (s *StageResource) Reference(m *StageModelElement) string {
	if m.ReferenceID < 0 || int(m.ReferenceID) >= len(s.References) {
		return ""
	}
	return s.References[m.ReferenceID]
}
