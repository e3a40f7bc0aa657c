// Package batch vectorizes a directory of mask tiles in parallel and writes
// one georeferenced GeoJSON file per tile.
//
// Tiles are independent, so parallelism is per tile: each worker runs the
// whole load, vectorize, georeference and export chain for one file.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/road-vectorize-mcp/internal/export"
	"github.com/ironsheep/road-vectorize-mcp/internal/geometry"
	"github.com/ironsheep/road-vectorize-mcp/internal/georef"
	"github.com/ironsheep/road-vectorize-mcp/internal/morph"
	"github.com/ironsheep/road-vectorize-mcp/internal/raster"
	"github.com/ironsheep/road-vectorize-mcp/internal/vectorize"
)

// DefaultPattern selects the tiles of a directory.
const DefaultPattern = "*.png"

// ErrNoTiles is returned when the input directory holds no matching file.
var ErrNoTiles = errors.New("batch: no tiles found")

// Job describes one batch run.
type Job struct {
	InputDir  string
	OutputDir string

	// Pattern is a filepath.Match pattern; DefaultPattern when empty.
	Pattern string

	// TileSize is the width of a tile without overlap;
	// georef.DefaultTileSize when zero.
	TileSize int

	// Order is the field order of the tile file names.
	Order georef.Order

	// Threshold binarizes the masks; see raster.Binarize.
	Threshold uint8

	// Skeletonize closes and thins the masks before vectorizing. Leave it
	// off for masks that are already one pixel wide.
	Skeletonize bool
	Morph       morph.Options

	// CropOverlap cuts the overlap border off before vectorizing instead of
	// georeferencing the full image.
	CropOverlap bool

	Vectorize vectorize.Options
	Export    export.Options

	// Workers bounds the number of tiles processed at once;
	// runtime.NumCPU() when zero or negative.
	Workers int

	Logger *slog.Logger
}

// DefaultJob returns a job reading and writing the given directories with
// default options everywhere else.
func DefaultJob(inputDir, outputDir string) Job {
	return Job{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Pattern:   DefaultPattern,
		TileSize:  georef.DefaultTileSize,
		Order:     georef.ColRowZoom,
		Threshold: raster.DefaultThreshold,
		Morph:     morph.DefaultOptions(),
		Vectorize: vectorize.DefaultOptions(),
		Export:    export.DefaultOptions(),
	}
}

func (j Job) withDefaults() Job {
	if j.Pattern == "" {
		j.Pattern = DefaultPattern
	}
	if j.TileSize == 0 {
		j.TileSize = georef.DefaultTileSize
	}
	if j.Workers <= 0 {
		j.Workers = runtime.NumCPU()
	}
	if j.Logger == nil {
		j.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return j
}

// TileResult is the outcome for one tile. Err is empty on success.
type TileResult struct {
	Name     string      `json:"name"`
	Tile     georef.Tile `json:"tile"`
	Output   string      `json:"output,omitempty"`
	Lines    int         `json:"lines"`
	Vertices int         `json:"vertices"`
	Err      string      `json:"error,omitempty"`
}

// Report summarizes a batch run. Tiles are sorted by name.
type Report struct {
	Tiles     []TileResult `json:"tiles"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Elapsed   string       `json:"elapsed"`
}

// Run processes every tile matching the job's pattern.
//
// A tile that fails is recorded in the report and does not stop the others.
// Run itself fails only for unusable jobs, an empty input directory, or a
// cancelled context.
func Run(ctx context.Context, job Job) (*Report, error) {
	job = job.withDefaults()
	if err := job.Vectorize.Validate(); err != nil {
		return nil, err
	}
	if err := job.Export.Validate(); err != nil {
		return nil, err
	}
	if job.OutputDir == "" {
		return nil, fmt.Errorf("batch: output directory is required")
	}

	paths, err := filepath.Glob(filepath.Join(job.InputDir, job.Pattern))
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s matching %s", ErrNoTiles, job.InputDir, job.Pattern)
	}
	sort.Strings(paths)
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	start := time.Now()
	results := make([]TileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(job.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = job.processTile(path, i+1)
			if results[i].Err != "" {
				job.Logger.Warn("tile failed", "tile", results[i].Name, "error", results[i].Err)
			} else {
				job.Logger.Debug("tile done", "tile", results[i].Name, "lines", results[i].Lines)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Tiles: results, Elapsed: time.Since(start).Round(time.Millisecond).String()}
	for _, r := range results {
		if r.Err == "" {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	job.Logger.Info("batch complete",
		"tiles", len(results), "succeeded", report.Succeeded, "failed", report.Failed,
		"elapsed", report.Elapsed)
	return report, nil
}

func (j Job) processTile(path string, id int) TileResult {
	name := filepath.Base(path)
	res := TileResult{Name: name}

	out, err := j.vectorizeTile(path, id, &res)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Output = out
	return res
}

func (j Job) vectorizeTile(path string, id int, res *TileResult) (string, error) {
	tile, err := georef.ParseTileName(path, j.Order)
	if err != nil {
		return "", err
	}
	res.Tile = tile

	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	width := img.Bounds().Dx()
	if j.CropOverlap && width > j.TileSize {
		border, err := georef.Border(width, j.TileSize)
		if err != nil {
			return "", err
		}
		if img, err = raster.CropOverlap(img, border); err != nil {
			return "", err
		}
		width = j.TileSize
	}
	aff, err := georef.TileAffine(tile, width, j.TileSize)
	if err != nil {
		return "", err
	}

	r := raster.Binarize(img, j.Threshold)
	if j.Skeletonize {
		if r, err = morph.Prepare(r, j.Morph); err != nil {
			return "", err
		}
	}
	vr, err := vectorize.Vectorize(r, j.Vectorize)
	if err != nil {
		return "", err
	}
	res.Lines = vr.Stats.Lines
	res.Vertices = vr.Stats.Vertices

	// Vectorizer output is in pixels times stride.
	s := 1 / j.Vectorize.Stride
	g := geometry.NewMultiLineString(vr.Lines).Transform(aff.PreScale(s, s))
	if j.Export.CRS != "" {
		if g, err = georef.Reproject(g, j.Export.CRS); err != nil {
			return "", err
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return export.WriteGeoJSON(filepath.Join(j.OutputDir, stem), g, id, j.Export)
}
