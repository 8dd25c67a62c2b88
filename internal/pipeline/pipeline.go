// Package pipeline runs the importers over files on disk: per-file import
// by extension, a digest cache, parallel batches, pack output and a watch
// mode that re-imports changed sources.
package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/assetimport/pkg/encoding"
	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/importer"
	"github.com/Faultbox/assetimport/pkg/pack"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// ErrUnsupportedSource is returned for files with an unknown extension.
var ErrUnsupportedSource = errors.New("unsupported source type")

// Kind is the type of an imported resource.
type Kind int

const (
	KindModel Kind = iota + 1
	KindStage
)

// String returns the resource kind name, also used as pack key suffix.
func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindStage:
		return "stage"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// KindOf returns the resource kind produced from a source file.
func KindOf(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dae":
		return KindModel, true
	case ".xcd":
		return KindStage, true
	default:
		return 0, false
	}
}

// Result is the outcome of importing one source file.
type Result struct {
	Source   string // path relative to the source dir, slash separated
	Key      string // pack key
	Kind     Kind
	Digest   string // SHA-256 of the source bytes
	Data     []byte // encoded resource
	Groups   int    // model groups (models) or elements (stages)
	Polygons int    // polygons over all model groups
	Elapsed  time.Duration
	Cached   bool
}

// Options configures an Importer.
type Options struct {
	SourceDir     string
	TexturePrefix string
	Target        string
	Materials     importer.MaterialMap
	References    map[string]string
}

// Importer imports source files into encoded resources.
type Importer struct {
	opts  Options
	log   *zap.Logger
	cache *Cache
}

// New creates an importer. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		opts:  opts,
		log:   log,
		cache: NewCache(),
	}
}

// Cache returns the importer's result cache.
func (im *Importer) Cache() *Cache {
	return im.cache
}

// SourceKey returns the source name of path relative to the source dir.
func (im *Importer) SourceKey(path string) string {
	if im.opts.SourceDir != "" {
		if rel, err := filepath.Rel(im.opts.SourceDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return encoding.NormalizePath(filepath.ToSlash(path))
}

// PackKey returns the pack key of a source: the content hash of its source
// name followed by the resource kind.
func PackKey(source string, kind Kind) string {
	return importer.ResourceHash(source) + "." + kind.String()
}

// ImportFile imports one source file. Unchanged sources are served from the
// cache.
func (im *Importer) ImportFile(path string) (*Result, error) {
	kind, ok := KindOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	source := im.SourceKey(path)
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if res, ok := im.cache.Get(source, digest); ok {
		im.log.Debug("unchanged", zap.String("source", source))
		res.Cached = true
		return res, nil
	}

	start := time.Now()
	res := &Result{
		Source: source,
		Key:    PackKey(source, kind),
		Kind:   kind,
		Digest: digest,
	}

	switch kind {
	case KindModel:
		err = im.importModel(data, res)
	case KindStage:
		err = im.importStage(data, res)
	}
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", source, err)
	}
	res.Elapsed = time.Since(start)

	im.cache.Set(res)
	im.log.Info("imported",
		zap.String("source", source),
		zap.Stringer("kind", kind),
		zap.Int("groups", res.Groups),
		zap.Int("polygons", res.Polygons),
		zap.Int("bytes", len(res.Data)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (im *Importer) importModel(data []byte, res *Result) error {
	doc, err := formats.ParseCollada(data)
	if err != nil {
		return err
	}

	opts := importer.Options{
		Materials:     importer.BuildMaterialLibrary(doc).Overlay(im.opts.Materials),
		TexturePrefix: im.opts.TexturePrefix,
		Target:        im.opts.Target,
	}

	var groups []*resource.ModelResourceGroup
	if opts.Target != "" {
		g, err := importer.Import(doc, opts)
		if err != nil {
			return err
		}
		groups = append(groups, g)
	} else {
		lib, err := importer.ImportLibrary(doc, opts)
		if err != nil {
			return err
		}
		if len(lib) == 0 {
			return importer.ErrNoGeometry
		}
		groups = sortedGroups(lib)
	}

	var buf bytes.Buffer
	if err := resource.SaveModelGroups(&buf, groups); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	res.Data = buf.Bytes()
	res.Groups = len(groups)
	for _, g := range groups {
		res.Polygons += g.PolygonCount()
	}
	return nil
}

func (im *Importer) importStage(data []byte, res *Result) error {
	doc, err := formats.ParseXCD(data)
	if err != nil {
		return err
	}

	stage, err := importer.DecodeStage(doc, im.resolveReference)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := resource.SaveStage(&buf, stage); err != nil {
		return fmt.Errorf("encoding stage: %w", err)
	}
	res.Data = buf.Bytes()
	res.Groups = len(stage.Cameras) + len(stage.Lights) + len(stage.Models)
	return nil
}

// resolveReference maps a stage link to the pack key of the resource it
// names. Configured overrides win; links to importable sources become pack
// keys; anything else is kept as a normalized path.
func (im *Importer) resolveReference(raw string) string {
	if ref, ok := im.opts.References[raw]; ok {
		return ref
	}
	source := encoding.NormalizePath(raw)
	if kind, ok := KindOf(source); ok {
		return PackKey(source, kind)
	}
	return source
}

func sortedGroups(lib map[string]*resource.ModelResourceGroup) []*resource.ModelResourceGroup {
	keys := make([]string, 0, len(lib))
	for k := range lib {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]*resource.ModelResourceGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, lib[k])
	}
	return groups
}

// Collect returns the importable files under dir, sorted. A non-empty
// extension list restricts the result further.
func Collect(dir string, extensions []string) ([]string, error) {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := KindOf(path); !ok {
			return nil
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting sources: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// WritePack writes results into a new pack at path, in key order.
func WritePack(path string, results []*Result) error {
	sorted := append([]*Result(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	w, err := pack.Create(path)
	if err != nil {
		return err
	}
	for _, res := range sorted {
		if err := w.Add(res.Key, res.Data); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
