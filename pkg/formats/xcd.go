package formats

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// XCD format errors.
var (
	ErrInvalidXCD = errors.New("invalid XCD document")
)

// XCD is a stage descriptor: cameras, lights and placed model elements.
type XCD struct {
	XMLName xml.Name  `xml:"xcd"`
	Version string    `xml:"version,attr"`
	Meta    []XCDMeta `xml:"head>meta"`
	Scene   *XCDScene `xml:"scene"`
}

// XCDMeta is a name/content pair of the document head.
type XCDMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

// XCDScene holds the stage contents in document order per category.
type XCDScene struct {
	Cameras  []XCDCamera  `xml:"camera"`
	Lights   []XCDLight   `xml:"light"`
	Elements []XCDElement `xml:"element"`
}

// XCDCamera is a <camera>. Orientation is stored as (angle, x, y, z) with
// the angle in turns.
type XCDCamera struct {
	ID               string               `xml:"id,attr"`
	FieldOfView      float32              `xml:"fov,attr"`
	Position         *Floats              `xml:"position"`
	Orientation      *Floats              `xml:"orientation"`
	Layers           *Bools               `xml:"layers"`
	CustomProperties *XCDCustomProperties `xml:"customproperties"`
}

// XCDLight is a <light>. Direction, location and color are optional.
type XCDLight struct {
	ID               string               `xml:"id,attr"`
	Type             string               `xml:"type,attr"`
	Radius           float32              `xml:"radius,attr"`
	Intensity        float32              `xml:"intensity,attr"`
	AmbientIntensity float32              `xml:"ambientintensity,attr"`
	SpotSize         float32              `xml:"spotsize,attr"`
	Angle            float32              `xml:"angle,attr"`
	Color            *Floats              `xml:"color"`
	Direction        *Floats              `xml:"direction"`
	Location         *Floats              `xml:"location"`
	Layers           *Bools               `xml:"layers"`
	CustomProperties *XCDCustomProperties `xml:"customproperties"`
}

// XCDElement is an <element>: a placed model referenced through link.
type XCDElement struct {
	ID               string               `xml:"id,attr"`
	Link             string               `xml:"link,attr"`
	Translation      *Floats              `xml:"translation"`
	Rotation         *Floats              `xml:"rotation"`
	Scale            *Floats              `xml:"scale"`
	BoundingBox      *XCDBoundingBox      `xml:"boundingBox"`
	Layers           *Bools               `xml:"layers"`
	CustomProperties *XCDCustomProperties `xml:"customproperties"`
}

// XCDBoundingBox lists the corner points of an element's bounds.
type XCDBoundingBox struct {
	Points []Floats `xml:"point"`
}

// XCDCustomProperties is <customproperties>.
type XCDCustomProperties struct {
	Properties []XCDProperty `xml:"property"`
}

// XCDProperty is a typed custom property. Type is one of String, Float, Int.
type XCDProperty struct {
	ID    string
	Type  string
	Value string
}

// UnmarshalXML reads the property attributes. Exporters disagree on the
// case of attribute names ("Value" vs "value"), so they are matched
// case-insensitively.
func (p *XCDProperty) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch strings.ToLower(attr.Name.Local) {
		case "id":
			p.ID = attr.Value
		case "type":
			p.Type = attr.Value
		case "value":
			p.Value = attr.Value
		}
	}
	return d.Skip()
}

func (c *XCDCustomProperties) list() []XCDProperty {
	if c == nil {
		return nil
	}
	return c.Properties
}

// Properties returns the camera's custom properties.
func (c *XCDCamera) Properties() []XCDProperty { return c.CustomProperties.list() }

// Properties returns the light's custom properties.
func (l *XCDLight) Properties() []XCDProperty { return l.CustomProperties.list() }

// Properties returns the element's custom properties.
func (e *XCDElement) Properties() []XCDProperty { return e.CustomProperties.list() }

// DecodeXCD reads an XCD document from r.
func DecodeXCD(r io.Reader) (*XCD, error) {
	doc := &XCD{}
	if err := newDecoder(r).Decode(doc); err != nil {
		if errors.Is(err, ErrMalformedArray) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidXCD, err)
	}
	return doc, nil
}

// ParseXCD parses an XCD document from memory.
func ParseXCD(data []byte) (*XCD, error) {
	return DecodeXCD(bytes.NewReader(data))
}

// ParseXCDFile parses an XCD document from disk.
func ParseXCDFile(path string) (*XCD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading XCD file: %w", err)
	}
	return ParseXCD(data)
}
