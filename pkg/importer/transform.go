package importer

import (
	"strings"

	"github.com/Faultbox/assetimport/pkg/encoding"
	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/math"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// ApplyNodeTransforms copies the translate, rotate and scale of every node
// that instances a decoded geometry onto that geometry's group. Nodes are
// visited depth-first in document order; when several nodes instance the
// same geometry the last one visited wins. Node transforms are not
// accumulated down the hierarchy.
func ApplyNodeTransforms(nodes []formats.Node, groups map[string]*resource.ModelResourceGroup) {
	for i := range nodes {
		applyNode(&nodes[i], groups)
	}
}

func applyNode(node *formats.Node, groups map[string]*resource.ModelResourceGroup) {
	if node.InstanceGeometry != nil {
		if group, ok := groups[encoding.TrimFragment(node.InstanceGeometry.URL)]; ok {
			group.Offset = nodeVec3(node.Translate, math.Vec3{})
			group.Scale = nodeVec3(node.Scale, math.Vec3One())
			if len(node.Rotate) > 0 {
				group.Rotation = NodeRotation(node.Rotate)
			}
		}
	}
	ApplyNodeTransforms(node.Children, groups)
}

func nodeVec3(v *formats.SIDValues, def math.Vec3) math.Vec3 {
	if v == nil || len(v.Data) < 3 {
		return def
	}
	return math.Vec3{X: v.Data[0], Y: v.Data[1], Z: v.Data[2]}
}

// NodeRotation composes the per-axis rotate elements of a node. Each
// element is (ax, ay, az, degrees) and names its axis by the last letter of
// its sid; axes without an element stay at zero. The angles are applied as
// yaw = X, pitch = Y, roll = Z.
func NodeRotation(rotates []formats.SIDValues) math.Quat {
	var x, y, z float32
	for _, r := range rotates {
		if len(r.Data) < 4 || r.SID == "" {
			continue
		}
		angle := math.DegToRad(r.Data[3])
		switch strings.ToUpper(r.SID[len(r.SID)-1:]) {
		case "X":
			x = angle
		case "Y":
			y = angle
		case "Z":
			z = angle
		}
	}
	return math.QuatFromYawPitchRoll(x, y, z)
}
