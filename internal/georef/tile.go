// Package georef places vectorized tiles on the map.
//
// Mask tiles are named after their TMS address, "<x>-<y>-<z>.png" by
// default. The address gives the tile's extent in Web Mercator
// (EPSG:3857); TileAffine turns that extent into the affine transform from
// scaled pixel space to map metres, accounting for any overlap border the
// tile was rendered with.
package georef

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"

	"github.com/ironsheep/road-vectorize-mcp/internal/geometry"
)

var (
	// ErrBadTileName is returned for names that are not three dash
	// separated tile numbers within range for their zoom.
	ErrBadTileName = errors.New("georef: bad tile name")

	// ErrOverlap is returned when an image is narrower than the tile it
	// renders, or its border is not the same on both sides.
	ErrOverlap = errors.New("georef: bad overlap")

	// ErrUnsupportedCRS is returned by Reproject for unknown targets.
	ErrUnsupportedCRS = errors.New("georef: unsupported CRS")
)

// DefaultTileSize is the pixel width of a tile without overlap.
const DefaultTileSize = 256

// MaxZoom is the deepest zoom level accepted in tile names.
const MaxZoom = 30

// Order is the field order of a tile file name.
type Order int

const (
	// ColRowZoom names tiles "<x>-<y>-<z>".
	ColRowZoom Order = iota
	// RowColZoom names tiles "<y>-<x>-<z>".
	RowColZoom
)

func (o Order) String() string {
	switch o {
	case ColRowZoom:
		return "col-row-zoom"
	case RowColZoom:
		return "row-col-zoom"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder accepts the names returned by Order.String. An empty string
// selects ColRowZoom.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "col-row-zoom":
		return ColRowZoom, nil
	case "row-col-zoom":
		return RowColZoom, nil
	default:
		return 0, fmt.Errorf("unknown tile name order %q", s)
	}
}

// Tile is a TMS tile address: Y counts from the southern edge.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// String returns the canonical "<x>-<y>-<z>" name.
func (t Tile) String() string {
	return fmt.Sprintf("%d-%d-%d", t.X, t.Y, t.Z)
}

// ParseTileName reads a tile address from a file name. Directories and the
// extension are ignored, so "out/12-34-7.png" and "12-34-7" are equivalent.
func ParseTileName(name string, order Order) (Tile, error) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	fields := strings.Split(base, "-")
	if len(fields) != 3 {
		return Tile{}, fmt.Errorf("%w: %q: want three dash separated numbers", ErrBadTileName, name)
	}
	var n [3]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return Tile{}, fmt.Errorf("%w: %q: field %d is not a tile number", ErrBadTileName, name, i+1)
		}
		n[i] = v
	}

	t := Tile{X: n[0], Y: n[1], Z: n[2]}
	if order == RowColZoom {
		t.X, t.Y = n[1], n[0]
	}
	if err := t.Validate(); err != nil {
		return Tile{}, fmt.Errorf("%w: %q", err, name)
	}
	return t, nil
}

// Validate checks that the address exists at its zoom level.
func (t Tile) Validate() error {
	if t.Z < 0 || t.Z > MaxZoom {
		return fmt.Errorf("%w: zoom %d outside 0..%d", ErrBadTileName, t.Z, MaxZoom)
	}
	n := 1 << uint(t.Z)
	if t.X < 0 || t.X >= n || t.Y < 0 || t.Y >= n {
		return fmt.Errorf("%w: tile %d/%d outside 0..%d at zoom %d", ErrBadTileName, t.X, t.Y, n-1, t.Z)
	}
	return nil
}

// MapTile returns the XYZ (slippy map) tile for the TMS address.
func (t Tile) MapTile() maptile.Tile {
	y := (1 << uint(t.Z)) - 1 - t.Y
	return maptile.New(uint32(t.X), uint32(y), maptile.Zoom(t.Z))
}

// LonLatBound returns the tile's extent in degrees.
func (t Tile) LonLatBound() orb.Bound {
	return t.MapTile().Bound()
}

// MercatorBound returns the tile's extent in EPSG:3857 metres.
func (t Tile) MercatorBound() orb.Bound {
	b := t.LonLatBound()
	return orb.Bound{
		Min: project.WGS84.ToMercator(b.Min),
		Max: project.WGS84.ToMercator(b.Max),
	}
}

// Border returns the overlap border of an image width pixels wide that
// renders a tile of tileSize pixels.
func Border(width, tileSize int) (int, error) {
	if tileSize < 1 {
		return 0, fmt.Errorf("%w: tile size %d", ErrOverlap, tileSize)
	}
	if width < tileSize {
		return 0, fmt.Errorf("%w: image width %d below tile size %d", ErrOverlap, width, tileSize)
	}
	if (width-tileSize)%2 != 0 {
		return 0, fmt.Errorf("%w: image width %d leaves an uneven border around %d", ErrOverlap, width, tileSize)
	}
	return (width - tileSize) / 2, nil
}

// TileAffine returns the transform from scaled pixel space of an image
// width pixels wide to EPSG:3857 metres.
//
// The tile itself covers tileSize pixels; a wider image carries an equal
// overlap border on every side, so its origin lies that many pixels west
// and north of the tile's north-west corner.
func TileAffine(t Tile, width, tileSize int) (geometry.Affine, error) {
	if err := t.Validate(); err != nil {
		return geometry.Affine{}, err
	}
	border, err := Border(width, tileSize)
	if err != nil {
		return geometry.Affine{}, err
	}

	b := t.MercatorBound()
	xSize := (b.Max[0] - b.Min[0]) / float64(tileSize)
	ySize := (b.Max[1] - b.Min[1]) / float64(tileSize)
	west := b.Min[0] - float64(border)*xSize
	north := b.Max[1] + float64(border)*ySize
	return geometry.FromOrigin(west, north, xSize, ySize), nil
}

// Supported CRS identifiers.
const (
	CRSWebMercator = "EPSG:3857"
	CRSWGS84       = "EPSG:4326"
)

// Reproject converts a geometry in EPSG:3857 metres to crs. EPSG:3857 is
// returned unchanged and EPSG:4326 as longitude/latitude degrees.
func Reproject(g geometry.Geometry, crs string) (geometry.Geometry, error) {
	switch normalizeCRS(crs) {
	case CRSWebMercator:
		return g, nil
	case CRSWGS84:
		return g.Map(project.Mercator.ToWGS84), nil
	default:
		return geometry.Geometry{}, fmt.Errorf("%w: %q", ErrUnsupportedCRS, crs)
	}
}

func normalizeCRS(crs string) string {
	c := strings.ToUpper(strings.TrimSpace(crs))
	c = strings.TrimPrefix(c, "URN:OGC:DEF:CRS:")
	c = strings.Replace(c, "EPSG::", "EPSG:", 1)
	switch c {
	case "OGC:1.3:CRS84", "OGC::CRS84", "CRS84", "WGS84":
		return CRSWGS84
	}
	return c
}

// PixelSize returns the ground size in metres of one pixel at zoom z for a
// tile of tileSize pixels, measured at the equator.
func PixelSize(z, tileSize int) float64 {
	return 2 * math.Pi * 6378137 / float64(tileSize) / math.Exp2(float64(z))
}
