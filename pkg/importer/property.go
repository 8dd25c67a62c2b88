package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// DecodeProperties converts raw custom properties into typed values, in
// order. It returns nil for an empty list.
func DecodeProperties(raw []formats.XCDProperty) ([]resource.StageProperty, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	props := make([]resource.StageProperty, 0, len(raw))
	for _, p := range raw {
		prop, err := DecodeProperty(p)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

// DecodeProperty converts one raw custom property.
func DecodeProperty(p formats.XCDProperty) (resource.StageProperty, error) {
	typ, err := resource.ParsePropertyType(p.Type)
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", p.ID, err)
	}

	return typedProperty(typ, p)
}

func typedProperty(typ resource.PropertyType, p formats.XCDProperty) (resource.StageProperty, error) {
	switch typ {
	case resource.PropertyString:
		return resource.StringProperty{ID: p.ID, Value: p.Value}, nil
	case resource.PropertyFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 32)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: float %q", ErrInvalidPropertyValue, p.ID, p.Value)
		}
		return resource.FloatProperty{ID: p.ID, Value: float32(v)}, nil
	case resource.PropertyInt:
		v, err := strconv.ParseInt(strings.TrimSpace(p.Value), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: int %q", ErrInvalidPropertyValue, p.ID, p.Value)
		}
		return resource.IntProperty{ID: p.ID, Value: int32(v)}, nil
	default:
		return nil, fmt.Errorf("%w: property %q: %v", ErrUnsupportedPropertyType, p.ID, typ)
	}
}
