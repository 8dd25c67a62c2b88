package importer

import (
	"fmt"
	"sort"

	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// ImportLibrary decodes the geometries of a document and applies the
// transforms of the active visual scene.
func ImportLibrary(doc *formats.Collada, opts Options) (map[string]*resource.ModelResourceGroup, error) {
	groups, err := DecodeGeometryLibrary(&doc.Geometries, opts)
	if err != nil {
		return nil, err
	}
	if scene := doc.ActiveScene(); scene != nil {
		ApplyNodeTransforms(scene.Nodes, groups)
	}
	return groups, nil
}

// Import decodes one model group from a document: opts.Target when set,
// otherwise the single geometry the document holds.
func Import(doc *formats.Collada, opts Options) (*resource.ModelResourceGroup, error) {
	groups, err := ImportLibrary(doc, opts)
	if err != nil {
		return nil, err
	}
	if opts.Target != "" {
		return groups[opts.Target], nil
	}

	switch len(groups) {
	case 0:
		return nil, ErrNoGeometry
	case 1:
		for _, g := range groups {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrAmbiguousGeometry, sortedKeys(groups))
}

// MeshInfo summarizes one geometry of a document.
type MeshInfo struct {
	ID        string
	Name      string
	Parts     int
	Materials []string
}

// Describe lists the geometries of a document that Import can decode,
// in document order.
func Describe(doc *formats.Collada) []MeshInfo {
	var infos []MeshInfo
	for _, geom := range doc.Geometries.Geometries {
		if geom.Mesh == nil {
			continue
		}
		prims := geom.Mesh.Primitives()
		if len(prims) == 0 {
			continue
		}
		info := MeshInfo{ID: geom.ID, Name: geom.Name, Parts: len(prims)}
		for _, p := range prims {
			info.Materials = append(info.Materials, p.Material)
		}
		infos = append(infos, info)
	}
	return infos
}

func sortedKeys(groups map[string]*resource.ModelResourceGroup) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
