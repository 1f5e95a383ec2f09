// Command prismremesh improves the mid surface of a shell with local edge
// splits and flips while keeping every prism column valid.
//
// Usage:
//
//	prismremesh -base base.stl -mid mid.stl -top top.stl -ref ref.stl -target 0.5
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/config"
	"github.com/soypat/prism/internal/logger"
	"github.com/soypat/prism/preview"
	"github.com/soypat/prism/refsurf"
	"github.com/soypat/prism/remesh"
	"github.com/soypat/prism/render"
	"github.com/soypat/prism/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

func main() {
	// Parse CLI flags
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("remeshing failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	c, err := loadCage(cfg)
	if err != nil {
		return err
	}
	logger.Info("shell loaded",
		zap.Int("vertices", c.NumVertices()),
		zap.Int("faces", len(c.F)),
		zap.Bool("grid", c.BaseGrid != nil),
	)

	schedule, err := remesh.ParseSchedule(cfg.Remesh.Schedule)
	if err != nil {
		return err
	}
	opt := &remesh.Options{
		DistortionBound:     cfg.Remesh.DistortionBound,
		SizingField:         remesh.UniformSizing(cfg.Remesh.TargetEdgeLength),
		SplitImproveQuality: cfg.Remesh.SplitImproveQuality,
	}
	stats := remesh.Run(c, opt, schedule, cfg.Remesh.Passes)
	total := remesh.Total(stats)
	for _, p := range schedule {
		logger.Info("remeshing total", zap.Stringer("summary", total[p]))
	}
	if err := c.Check(); err != nil {
		return fmt.Errorf("shell inconsistent after remeshing: %w", err)
	}
	return writeOutputs(cfg.Output, c, stats)
}

// loadCage reads and welds the input layers and the reference surface.
func loadCage(cfg *config.Config) (*prism.Cage, error) {
	in := cfg.Input
	if in.Base == "" || in.Mid == "" || in.Top == "" {
		return nil, errors.New("base, mid and top layer STL files are required")
	}
	if in.Reference == "" {
		in.Reference = in.Mid
	}
	var soups [4][]render.Triangle3
	for i, path := range []string{in.Base, in.Mid, in.Top, in.Reference} {
		model, err := render.LoadSTL(path)
		if errors.Is(err, render.ErrNormalMismatch) {
			logger.Warn("STL normals disagree with winding", zap.String("file", path), zap.Error(err))
		} else if err != nil {
			return nil, err
		}
		soups[i] = model
	}
	base, mid, top, F, err := render.WeldLayers(soups[0], soups[1], soups[2], in.VertexTolerance)
	if err != nil {
		return nil, err
	}
	refV, refF, err := render.Weld(soups[3], in.VertexTolerance)
	if err != nil {
		return nil, fmt.Errorf("reference surface: %w", err)
	}
	ref, err := refsurf.New(refV, refF)
	if err != nil {
		return nil, err
	}
	c, err := prism.NewCage(base, mid, top, F, ref)
	if err != nil {
		return nil, err
	}
	if cfg.Grid.Enabled {
		cs := cfg.Grid.CellSize
		if cs == 0 {
			cs = spatial.SuggestCellSize(c.Mid, c.F)
		}
		c.AttachGrids(spatial.NewHashGrid(cs), spatial.NewHashGrid(cs))
	}
	return c, nil
}

func writeOutputs(out config.OutputConfig, c *prism.Cage, stats []remesh.Stats) error {
	if err := os.MkdirAll(out.Dir, 0755); err != nil {
		return err
	}
	for _, layer := range []struct {
		name string
		V    []r3.Vec
	}{{"base", c.Base}, {"mid", c.Mid}, {"top", c.Top}} {
		path := filepath.Join(out.Dir, layer.name+".stl")
		if err := render.CreateSTL(path, render.NewMeshRenderer(layer.V, c.F)); err != nil {
			return fmt.Errorf("writing %s layer: %w", layer.name, err)
		}
		logger.Debug("layer written", zap.String("file", path))
	}
	if out.Preview {
		path := filepath.Join(out.Dir, "mid.png")
		if err := preview.LayerToPNG(c.Mid, c.F, path, preview.DefaultView()); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
	}
	if out.Plot {
		if err := preview.QualityHistogram(c.MidQualities(), filepath.Join(out.Dir, "quality.png")); err != nil {
			return fmt.Errorf("quality plot: %w", err)
		}
		if err := preview.RejectionChart(stats, filepath.Join(out.Dir, "outcomes.png")); err != nil {
			return fmt.Errorf("outcome plot: %w", err)
		}
	}
	logger.Info("outputs written", zap.String("dir", out.Dir))
	return nil
}
