package batch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/road-vectorize-mcp/internal/georef"
)

// writeRoadTile writes a size x size mask with a one-pixel road on row 10
// and returns its path.
func writeRoadTile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for x := 2; x <= 20; x++ {
		img.SetGray(x, 10, color.Gray{Y: 255})
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func readLines(t *testing.T, path string) orb.MultiLineString {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	mls, ok := fc.Features[0].Geometry.(orb.MultiLineString)
	require.True(t, ok)
	return mls
}

func TestRun(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeRoadTile(t, in, "0-0-1.png", 32)
	writeRoadTile(t, in, "1-1-1.png", 32)

	job := DefaultJob(in, out)
	job.TileSize = 32
	job.Workers = 2

	report, err := Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	assert.Zero(t, report.Failed)
	require.Len(t, report.Tiles, 2)
	assert.Equal(t, "0-0-1.png", report.Tiles[0].Name)
	assert.Equal(t, georef.Tile{X: 1, Y: 1, Z: 1}, report.Tiles[1].Tile)

	// Tile 0-0-1 is the south-west quadrant.
	sw := readLines(t, filepath.Join(out, "0-0-1.geojson"))
	require.Len(t, sw, 1)
	for _, p := range sw[0] {
		assert.True(t, p[0] >= -180 && p[0] <= 0, "lon %v", p[0])
		assert.True(t, p[1] >= -86 && p[1] <= 0, "lat %v", p[1])
	}

	ne := readLines(t, report.Tiles[1].Output)
	require.Len(t, ne, 1)
	for _, p := range ne[0] {
		assert.True(t, p[0] >= 0 && p[0] <= 180, "lon %v", p[0])
		assert.True(t, p[1] >= 0 && p[1] <= 86, "lat %v", p[1])
	}
}

func TestRun_WebMercatorOutput(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeRoadTile(t, in, "0-0-0.png", 32)

	job := DefaultJob(in, out)
	job.TileSize = 32
	job.Export.CRS = georef.CRSWebMercator

	report, err := Run(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)

	mls := readLines(t, report.Tiles[0].Output)
	require.Len(t, mls, 1)
	px := georef.PixelSize(0, 32)
	// Row 10 of 32 at scale 32/31, in metres below the northern edge.
	wantY := 20037508.342789244 - 10.32*px
	for _, p := range mls[0] {
		assert.InDelta(t, wantY, p[1], 1e-3)
	}
}

func TestRun_CropOverlap(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeRoadTile(t, in, "0-0-0.png", 36)

	job := DefaultJob(in, out)
	job.TileSize = 32
	job.CropOverlap = true

	report, err := Run(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded, "%+v", report.Tiles)
	assert.Equal(t, 1, report.Tiles[0].Lines)
}

func TestRun_Skeletonize(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 9; y <= 11; y++ {
		for x := 2; x <= 25; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	f, err := os.Create(filepath.Join(in, "0-0-0.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	job := DefaultJob(in, out)
	job.TileSize = 32
	job.Skeletonize = true

	report, err := Run(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded, "%+v", report.Tiles)
	assert.GreaterOrEqual(t, report.Tiles[0].Lines, 1)
}

func TestRun_BadTileRecorded(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeRoadTile(t, in, "0-0-0.png", 32)
	writeRoadTile(t, in, "road.png", 32)

	job := DefaultJob(in, out)
	job.TileSize = 32

	report, err := Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "road.png", report.Tiles[1].Name)
	assert.Contains(t, report.Tiles[1].Err, "bad tile name")
	assert.Empty(t, report.Tiles[1].Output)
}

func TestRun_NoTiles(t *testing.T) {
	_, err := Run(context.Background(), DefaultJob(t.TempDir(), t.TempDir()))
	assert.ErrorIs(t, err, ErrNoTiles)
}

func TestRun_InvalidJob(t *testing.T) {
	in := t.TempDir()
	writeRoadTile(t, in, "0-0-0.png", 32)

	job := DefaultJob(in, "")
	_, err := Run(context.Background(), job)
	assert.Error(t, err)

	job = DefaultJob(in, t.TempDir())
	job.Vectorize.Stride = 0
	_, err = Run(context.Background(), job)
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	in := t.TempDir()
	writeRoadTile(t, in, "0-0-0.png", 32)
	writeRoadTile(t, in, "0-1-1.png", 32)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, DefaultJob(in, t.TempDir()))
	assert.ErrorIs(t, err, context.Canceled)
}
