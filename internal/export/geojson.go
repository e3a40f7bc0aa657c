// Package export writes georeferenced line networks as GeoJSON.
//
// Output is configured through Options, passed explicitly by the caller:
// the target CRS recorded in the file, the feature schema, and the geometry
// type features must carry.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/ironsheep/road-vectorize-mcp/internal/geometry"
)

// ErrUnsupportedGeometry is returned when a geometry does not match the
// configured geometry type or is empty.
var ErrUnsupportedGeometry = errors.New("export: unsupported geometry")

// Extension is appended to output paths that have none.
const Extension = ".geojson"

// Schema describes the features of an output file.
type Schema struct {
	Geometry   string            `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

// Options controls FeatureCollection and WriteGeoJSON.
type Options struct {
	// CRS is recorded as a named crs member, e.g. "EPSG:4326". Empty omits
	// the member.
	CRS string `json:"crs"`

	// Schema lists the feature properties. A property named "id" receives
	// the feature id; others are written as null.
	Schema Schema `json:"schema"`

	// GeometryType overrides Schema.Geometry when set.
	GeometryType string `json:"geometry_type,omitempty"`
}

// DefaultOptions returns EPSG:4326 with a MultiLineString schema carrying an
// integer id.
func DefaultOptions() Options {
	return Options{
		CRS: "EPSG:4326",
		Schema: Schema{
			Geometry:   geometry.KindMultiLineString.String(),
			Properties: map[string]string{"id": "int"},
		},
	}
}

func (o Options) geometryType() string {
	if o.GeometryType != "" {
		return o.GeometryType
	}
	return o.Schema.Geometry
}

// Validate checks the geometry type name and property types.
func (o Options) Validate() error {
	if _, err := geometry.ParseKind(o.geometryType()); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedGeometry, err)
	}
	for name, typ := range o.Schema.Properties {
		switch typ {
		case "int", "float", "str", "bool":
		default:
			return fmt.Errorf("export: property %q has unknown type %q", name, typ)
		}
	}
	if t, ok := o.Schema.Properties["id"]; ok && t != "int" {
		return fmt.Errorf("export: property \"id\" must be int, got %q", t)
	}
	return nil
}

// CRSMember returns the legacy GeoJSON named crs object for code, or nil
// when code is empty.
func CRSMember(code string) map[string]any {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	name := code
	if auth, num, ok := strings.Cut(code, ":"); ok && !strings.HasPrefix(strings.ToLower(code), "urn:") {
		name = fmt.Sprintf("urn:ogc:def:crs:%s::%s", strings.ToUpper(auth), num)
	}
	return map[string]any{
		"type":       "name",
		"properties": map[string]any{"name": name},
	}
}

// FeatureCollection wraps g as the single feature of a collection, with the
// feature's properties filled from the schema and the CRS attached.
func FeatureCollection(g geometry.Geometry, id int, opts Options) (*geojson.FeatureCollection, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if got, want := g.Kind.String(), opts.geometryType(); got != want {
		return nil, fmt.Errorf("%w: got %s, schema wants %s", ErrUnsupportedGeometry, got, want)
	}
	og, err := g.Orb()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedGeometry, err)
	}

	f := geojson.NewFeature(og)
	f.ID = id
	names := make([]string, 0, len(opts.Schema.Properties))
	for name := range opts.Schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "id" {
			f.Properties[name] = id
			continue
		}
		f.Properties[name] = nil
	}

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	if !g.IsEmpty() {
		fc.BBox = geojson.NewBBox(og.Bound())
	}
	if crs := CRSMember(opts.CRS); crs != nil {
		fc.ExtraMembers = geojson.Properties{"crs": crs}
	}
	return fc, nil
}

// OutputPath adds Extension to path unless it already has an extension.
func OutputPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + Extension
	}
	return path
}

// WriteGeoJSON writes g as a one-feature FeatureCollection and returns the
// path written, which gains a ".geojson" extension when path has none.
// Missing parent directories are created.
func WriteGeoJSON(path string, g geometry.Geometry, id int, opts Options) (string, error) {
	fc, err := FeatureCollection(g, id, opts)
	if err != nil {
		return "", err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("export: encode: %w", err)
	}

	out := OutputPath(path)
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return out, nil
}
