// assetimport converts COLLADA meshes and XCD stages into engine resources
// and packs them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/assetimport/internal/config"
	"github.com/Faultbox/assetimport/internal/logger"
	"github.com/Faultbox/assetimport/internal/pipeline"
	"github.com/Faultbox/assetimport/pkg/formats"
	"github.com/Faultbox/assetimport/pkg/importer"
	"github.com/Faultbox/assetimport/pkg/math"
	"github.com/Faultbox/assetimport/pkg/pack"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := args[0]
	args = args[1:]

	switch command {
	case "mesh", "stage":
		err = cmdImport(cfg, command, args)
	case "describe":
		err = cmdDescribe(cfg, args)
	case "batch":
		err = cmdBatch(cfg, args)
	case "watch":
		err = cmdWatch(cfg, args)
	case "info":
		err = cmdInfo(args)
	case "list", "ls":
		err = cmdList(args)
	case "extract", "x":
		err = cmdExtract(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`assetimport - offline asset import pipeline

Usage:
  assetimport [flags] <command> [options]

Commands:
  mesh <file.dae> [output]           Import a COLLADA mesh into a model resource
  stage <file.xcd> [output]          Import an XCD stage into a stage resource
  describe <file.dae|file.xcd>       Summarize the geometries or stage elements of a source
  batch [dir]                        Import every source under dir into a pack
  watch [dir]                        Re-import sources on change and rewrite the pack
  info <file.pak>                    Show pack information
  list <file.pak> [pattern]          List pack keys (optional glob pattern)
  extract <file.pak> <key> [output]  Extract resource(s) to directory

Flags:
  -config <path>    Config file (default ./assetimport.yaml)
  -source <dir>     Source directory
  -out <path>       Output pack
  -textures <dir>   Texture path prefix
  -target <id>      Geometry id to import from a mesh document
  -workers <n>      Parallel imports
  -keep-going       Continue a batch after failures
  -debug            Enable debug logging

Examples:
  assetimport mesh models/crate.dae
  assetimport -target crate-mesh mesh models/props.dae props.model
  assetimport -out level.pak -workers 8 batch art/
  assetimport list level.pak "*.stage"`)
}

func newImporter(cfg *config.Config, sourceDir string) *pipeline.Importer {
	return pipeline.New(pipeline.Options{
		SourceDir:     sourceDir,
		TexturePrefix: cfg.Import.TexturePrefix,
		Target:        cfg.Import.Target,
		Materials:     cfg.MaterialMap(),
		References:    cfg.References,
	}, logger.Named("pipeline"))
}

func cmdImport(cfg *config.Config, command string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: assetimport %s <source> [output]", command)
	}

	src := args[0]
	kind, ok := pipeline.KindOf(src)
	if !ok || (command == "mesh") != (kind == pipeline.KindModel) {
		return fmt.Errorf("%w: %s is not a %s source", pipeline.ErrUnsupportedSource, src, command)
	}

	output := strings.TrimSuffix(src, filepath.Ext(src)) + "." + kind.String()
	if len(args) > 1 {
		output = args[1]
	}

	res, err := newImporter(cfg, filepath.Dir(src)).ImportFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, res.Data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("Imported: %s -> %s (%d bytes, key %s)\n", src, output, len(res.Data), res.Key)
	if kind == pipeline.KindModel {
		fmt.Printf("  %d groups, %d polygons\n", res.Groups, res.Polygons)
	}
	return nil
}

func cmdDescribe(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: assetimport describe <file.dae|file.xcd>")
	}

	kind, ok := pipeline.KindOf(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", pipeline.ErrUnsupportedSource, args[0])
	}
	if kind == pipeline.KindStage {
		return describeStage(args[0])
	}
	return describeMesh(cfg, args[0])
}

func describeMesh(cfg *config.Config, path string) error {
	doc, err := formats.ParseColladaFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("Document: %s (COLLADA %s)\n", path, doc.Version)
	for _, info := range importer.Describe(doc) {
		fmt.Printf("  %-24s %-24s parts=%d materials=%s\n",
			info.ID, info.Name, info.Parts, strings.Join(info.Materials, ","))
	}

	lib := importer.BuildMaterialLibrary(doc)
	refs := make([]string, 0, len(lib))
	for ref := range lib {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	if len(refs) > 0 {
		fmt.Println()
		fmt.Println("Materials:")
	}
	for _, ref := range refs {
		mat := lib[ref]
		fmt.Printf("  %-24s diffuse=%s normal=%s alpha=%s\n", ref, mat.DiffuseTexture, mat.NormalTexture, mat.AlphaTexture)
	}

	groups, err := importer.ImportLibrary(doc, importer.Options{
		Materials:     lib.Overlay(cfg.MaterialMap()),
		TexturePrefix: cfg.Import.TexturePrefix,
	})
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		fmt.Println()
		fmt.Println("Groups:")
	}
	for _, id := range ids {
		g := groups[id]
		textured := 0
		for i := range g.Parts {
			for j := range g.Parts[i].Materials {
				if g.Parts[i].Materials[j].HasTextures() {
					textured++
				}
			}
		}
		fmt.Printf("  %-24s polygons=%d triangles=%d corners=%d textured=%d",
			id, g.PolygonCount(), g.TriangleCount(), g.CornerCount(), textured)
		if lo, hi, ok := g.Bounds(); ok {
			size := hi.Sub(lo)
			fmt.Printf(" size=%.3gx%.3gx%.3g", size.X, size.Y, size.Z)
		}
		fmt.Println()
	}
	return nil
}

func describeStage(path string) error {
	doc, err := formats.ParseXCDFile(path)
	if err != nil {
		return err
	}
	stage, err := importer.DecodeStage(doc, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Stage: %s (%d cameras, %d lights, %d models)\n",
		path, len(stage.Cameras), len(stage.Lights), len(stage.Models))
	for i := range stage.Lights {
		l := &stage.Lights[i]
		fmt.Printf("  light %-18s %-10s intensity=%g\n", l.ID, l.Kind, l.Intensity)
	}
	for i := range stage.Models {
		m := &stage.Models[i]
		f := m.Facing()
		fmt.Printf("  model %-18s at (%g, %g, %g) turned %.1f deg, facing (%.2f, %.2f, %.2f) -> %s\n",
			m.ID, m.Translation.X, m.Translation.Y, m.Translation.Z,
			math.RadToDeg(m.Rotation.W), f.X, f.Y, f.Z, stage.Reference(m))
	}
	return nil
}

func sourceDir(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Import.SourceDir
}

func cmdBatch(cfg *config.Config, args []string) error {
	dir := sourceDir(cfg, args)
	files, err := pipeline.Collect(dir, cfg.Import.Extensions)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := newImporter(cfg, dir).Batch(ctx, files, cfg.Import.Workers, cfg.Import.KeepGoing)
	if err != nil && !cfg.Import.KeepGoing {
		return err
	}
	if len(results) > 0 {
		if werr := pipeline.WritePack(cfg.Import.Output, results); werr != nil {
			return werr
		}
	}

	fmt.Fprintf(os.Stderr, "\nImported %d of %d sources into %s\n", len(results), len(files), cfg.Import.Output)
	return err
}

func cmdWatch(cfg *config.Config, args []string) error {
	dir := sourceDir(cfg, args)
	im := newImporter(cfg, dir)

	files, err := pipeline.Collect(dir, cfg.Import.Extensions)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := im.Batch(ctx, files, cfg.Import.Workers, true); err != nil {
		logger.Warn("initial import incomplete", zap.Error(err))
	}
	if err := pipeline.WritePack(cfg.Import.Output, im.Cache().Results()); err != nil {
		return err
	}

	return im.Watch(ctx, dir, cfg.Import.WatchDebounce, func(path string, res *pipeline.Result, err error) {
		if err != nil {
			return
		}
		if err := pipeline.WritePack(cfg.Import.Output, im.Cache().Results()); err != nil {
			logger.Error("writing pack", zap.Error(err))
			return
		}
		fmt.Printf("Updated: %s (%s)\n", res.Source, res.Key)
	})
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: assetimport info <file.pak>")
	}

	archive, err := pack.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	keys := archive.List()

	// Count by resource kind
	kindCount := make(map[string]int)
	var packed, unpacked uint64
	for _, k := range keys {
		ext := strings.ToLower(filepath.Ext(k))
		if ext == "" {
			ext = "(no ext)"
		}
		kindCount[ext]++
		if e, ok := archive.Entry(k); ok {
			packed += uint64(e.CompressedSize)
			unpacked += uint64(e.UncompressedSize)
		}
	}

	hdr := archive.Header()
	fmt.Printf("Pack:     %s\n", args[0])
	fmt.Printf("Version:  0x%x\n", hdr.Version)
	fmt.Printf("Files:    %d\n", len(keys))
	fmt.Printf("Size:     %.2f KB (%.2f KB unpacked)\n", float64(packed)/1024, float64(unpacked)/1024)
	fmt.Println()
	fmt.Println("Files by kind:")

	exts := make([]string, 0, len(kindCount))
	for ext := range kindCount {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		return kindCount[exts[i]] > kindCount[exts[j]]
	})
	for _, ext := range exts {
		fmt.Printf("  %-10s %d\n", ext, kindCount[ext])
	}
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: assetimport list <file.pak> [pattern]")
	}

	archive, err := pack.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = fs.Arg(1)
	}

	count := 0
	for _, k := range archive.List() {
		if pattern != "" {
			if matched, _ := filepath.Match(pattern, k); !matched {
				continue
			}
		}
		fmt.Println(k)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
	return nil
}

func cmdExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: assetimport extract <file.pak> <key> [output_dir]")
	}

	key := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive, err := pack.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	keys := []string{key}
	if strings.ContainsAny(key, "*?[") {
		keys = keys[:0]
		for _, k := range archive.List() {
			if matched, _ := filepath.Match(key, k); matched {
				keys = append(keys, k)
			}
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	for _, k := range keys {
		data, err := archive.Read(k)
		if err != nil {
			return err
		}
		// keys may contain '/' from base64
		outputPath := filepath.Join(outputDir, strings.ReplaceAll(k, "/", "_"))
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
	}
	return nil
}
