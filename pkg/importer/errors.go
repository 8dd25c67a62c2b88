package importer

import (
	"errors"

	"github.com/Faultbox/assetimport/pkg/resource"
)

// Geometry errors.
var (
	ErrMissingMeshData      = errors.New("missing mesh data")
	ErrVertexSourceMismatch = errors.New("vertex source does not match <vertices> id")
	ErrTruncatedIndices     = errors.New("index stream length is not a multiple of the input stride")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrDegeneratePolygon    = errors.New("polygon has fewer than 3 corners")
)

// Target selection errors.
var (
	ErrGeometryNotFound  = errors.New("geometry not found")
	ErrAmbiguousGeometry = errors.New("document has more than one geometry and no target was given")
	ErrNoGeometry        = errors.New("document has no decodable geometry")
)

// Property errors.
var (
	ErrInvalidPropertyValue    = errors.New("invalid property value")
	ErrUnsupportedPropertyType = resource.ErrUnsupportedPropertyType
)

// Stage errors.
var (
	ErrUnknownLightKind = resource.ErrUnknownLightKind
	ErrMissingScene     = errors.New("stage document has no scene")
	ErrInvalidVector    = errors.New("invalid vector")
)
