package importer

import (
	"net/url"
	"strings"

	"github.com/Faultbox/assetimport/pkg/encoding"
	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// MaterialBindings resolves the material reference of a polygon list.
type MaterialBindings interface {
	Lookup(ref string) (resource.Material, bool)
}

// MaterialMap is a MaterialBindings backed by a map keyed by reference.
type MaterialMap map[string]resource.Material

// Lookup implements MaterialBindings.
func (m MaterialMap) Lookup(ref string) (resource.Material, bool) {
	mat, ok := m[ref]
	return mat, ok
}

// Overlay returns the bindings of m with every entry of over replacing the
// entry of the same reference.
func (m MaterialMap) Overlay(over MaterialMap) MaterialMap {
	out := make(MaterialMap, len(m)+len(over))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// BuildMaterialLibrary derives material bindings from the material, effect
// and image libraries of a document. Texture fields hold image paths as
// written in the document. Materials without a diffuse texture are skipped.
func BuildMaterialLibrary(doc *formats.Collada) MaterialMap {
	lib := make(MaterialMap)
	for _, mat := range doc.Materials {
		fx := doc.Effect(encoding.TrimFragment(mat.InstanceEffect.URL))
		if fx == nil || fx.Profile == nil {
			continue
		}

		m := effectMaterial(doc, fx)
		if m.DiffuseTexture == "" {
			continue
		}
		m.Name = mat.ID
		lib[mat.ID] = m
		if mat.Name != "" {
			if _, ok := lib[mat.Name]; !ok {
				lib[mat.Name] = m
			}
		}
	}
	return lib
}

func effectMaterial(doc *formats.Collada, fx *formats.Effect) resource.Material {
	var m resource.Material
	tech := &fx.Profile.Technique

	if shader := tech.Shader(); shader != nil {
		m.DiffuseTexture = channelTexture(doc, fx, shader.Diffuse)
		m.SpecularTexture = channelTexture(doc, fx, shader.Specular)
		if tech.Phong != nil {
			m.AlphaTexture = channelTexture(doc, fx, shader.Transparent)
		}
	}

	if tech.Extra != nil {
		for i := range tech.Extra.Techniques {
			if bump := channelTexture(doc, fx, tech.Extra.Techniques[i].Bump); bump != "" {
				m.NormalTexture = bump
				break
			}
		}
	}
	if m.NormalTexture == m.DiffuseTexture {
		m.NormalTexture = ""
	}
	return m
}

func channelTexture(doc *formats.Collada, fx *formats.Effect, ch *formats.ColorOrTexture) string {
	if ch == nil || ch.Texture == nil || ch.Texture.Texture == "" {
		return ""
	}
	return resolveTexture(doc, fx, ch.Texture.Texture, 0)
}

// resolveTexture follows sampler -> surface -> image references to an
// image path. Unresolvable names are returned as is.
func resolveTexture(doc *formats.Collada, fx *formats.Effect, name string, depth int) string {
	if depth > 8 {
		return name
	}
	for i := range fx.Profile.Params {
		param := &fx.Profile.Params[i]
		if !strings.EqualFold(param.SID, name) {
			continue
		}
		switch {
		case param.Sampler2D != nil && param.Sampler2D.InstanceImage != nil:
			return imagePath(doc, encoding.TrimFragment(param.Sampler2D.InstanceImage.URL))
		case param.Sampler2D != nil:
			return resolveTexture(doc, fx, strings.TrimSpace(param.Sampler2D.Source), depth+1)
		case param.Surface != nil:
			return imagePath(doc, strings.TrimSpace(param.Surface.InitFrom))
		default:
			return name
		}
	}
	return imagePath(doc, name)
}

func imagePath(doc *formats.Collada, id string) string {
	if img := doc.Image(id); img != nil {
		return img.InitFrom.Path()
	}
	return id
}

// bindMaterial returns a copy of the bound material of ref with its texture
// fields rewritten into content hashes. ok is false when ref is not bound.
func bindMaterial(bindings MaterialBindings, ref, prefix string, hash HashFunc) (resource.Material, bool) {
	if bindings == nil || ref == "" {
		return resource.Material{}, false
	}
	m, ok := bindings.Lookup(ref)
	if !ok {
		return resource.Material{}, false
	}

	for _, tex := range m.Textures() {
		if *tex == "" {
			continue
		}
		*tex = hash(encoding.JoinPath(prefix, unescapePath(*tex)))
	}
	return m, true
}

// unescapePath decodes %XX escapes of a document URL. Invalid escapes leave
// the path unchanged.
func unescapePath(p string) string {
	if dec, err := url.PathUnescape(p); err == nil {
		return dec
	}
	return p
}
