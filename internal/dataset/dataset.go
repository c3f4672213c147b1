// Package dataset loads and generates the geometric datasets the geotree
// tools index. GeoJSON files are the interchange format: any feature kind is
// accepted, reduced to its bounding rect (box keys) or center (point keys).
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/geotoolbox/geotree"
	"github.com/geotoolbox/geotree/geom"
	"github.com/tidwall/geojson"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Feature is one dataset entry: an application id and its spatial key.
type Feature[K geotree.Key] struct {
	ID  int64
	Key K
}

// Key extracts a feature's spatial key; it is the key function handed to
// geotree.New.
func Key[K geotree.Key](f Feature[K]) K {
	return f.Key
}

// LoadGeoJSON reads a GeoJSON file and returns one box feature per GeoJSON
// feature, keyed by its bounding rect.
func LoadGeoJSON(path string) ([]Feature[geom.Rect], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGeoJSON(string(data))
}

// LoadGeoJSONPoints reads a GeoJSON file and returns one point feature per
// GeoJSON feature, keyed by its center.
func LoadGeoJSONPoints(path string) ([]Feature[geom.Point], error) {
	feats, err := LoadGeoJSON(path)
	if err != nil {
		return nil, err
	}
	out := make([]Feature[geom.Point], len(feats))
	for i, f := range feats {
		out[i] = Feature[geom.Point]{ID: f.ID, Key: f.Key.Center()}
	}
	return out, nil
}

// ParseGeoJSON parses a GeoJSON document: either a FeatureCollection or a
// single feature/geometry. Feature ids come from the `id` or `properties.id`
// members when numeric, else from the feature's position.
func ParseGeoJSON(doc string) ([]Feature[geom.Rect], error) {
	if !gjson.Valid(doc) {
		return nil, errors.New("invalid json document")
	}
	var raws []gjson.Result
	if features := gjson.Get(doc, "features"); features.Exists() {
		raws = features.Array()
	} else {
		raws = []gjson.Result{gjson.Parse(doc)}
	}
	out := make([]Feature[geom.Rect], 0, len(raws))
	for i, raw := range raws {
		obj, err := geojson.Parse(raw.Raw, nil)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		rect := obj.Rect()
		id := int64(i)
		if v := raw.Get("id"); v.Exists() {
			id = v.Int()
		} else if v := raw.Get("properties.id"); v.Exists() {
			id = v.Int()
		}
		out = append(out, Feature[geom.Rect]{
			ID:  id,
			Key: geom.R(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y),
		})
	}
	return out, nil
}

// SaveGeoJSON writes features as a pretty-printed FeatureCollection. Point
// keys become Point geometries, rect keys become closed Polygon rings.
func SaveGeoJSON[K geotree.Key](path string, feats []Feature[K]) error {
	doc := `{"type":"FeatureCollection","features":[]}`
	for _, f := range feats {
		feat := `{"type":"Feature","properties":{}}`
		feat, _ = sjson.Set(feat, "id", f.ID)
		switch k := any(f.Key).(type) {
		case geom.Point:
			feat, _ = sjson.Set(feat, "geometry.type", "Point")
			feat, _ = sjson.Set(feat, "geometry.coordinates", []float64{k[0], k[1]})
		case geom.Rect:
			feat, _ = sjson.Set(feat, "geometry.type", "Polygon")
			feat, _ = sjson.Set(feat, "geometry.coordinates", [][][]float64{{
				{k.Min[0], k.Min[1]},
				{k.Max[0], k.Min[1]},
				{k.Max[0], k.Max[1]},
				{k.Min[0], k.Max[1]},
				{k.Min[0], k.Min[1]},
			}})
		}
		var err error
		doc, err = sjson.SetRaw(doc, "features.-1", feat)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, pretty.Pretty([]byte(doc)), 0666)
}

// UniformPoints generates n point features uniformly distributed over the
// square [0, extent]². The same seed, n, and extent produce the same
// positions as UniformBoxes with those arguments.
func UniformPoints(n int, extent float64, seed int64) []Feature[geom.Point] {
	rng, extent, _ := uniformParams(extent, 0, seed)
	out := make([]Feature[geom.Point], n)
	for i := 0; i < n; i++ {
		center := geom.P(rng.Float64()*extent, rng.Float64()*extent)
		rng.Float64() // keep the stream aligned with the box variant
		out[i] = Feature[geom.Point]{ID: int64(i), Key: center}
	}
	return out
}

// UniformBoxes generates n box features with centers uniform over
// [0, extent]² and sizes uniform in [0, maxSize], clipped to the extent
// square.
func UniformBoxes(n int, extent, maxSize float64, seed int64) []Feature[geom.Rect] {
	rng, extent, maxSize := uniformParams(extent, maxSize, seed)
	world := geom.R(0, 0, extent, extent)
	out := make([]Feature[geom.Rect], n)
	for i := 0; i < n; i++ {
		center := geom.P(rng.Float64()*extent, rng.Float64()*extent)
		half := rng.Float64() * maxSize / 2
		box := geom.Rect{
			Min: geom.P(center[0]-half, center[1]-half),
			Max: geom.P(center[0]+half, center[1]+half),
		}
		out[i] = Feature[geom.Rect]{ID: int64(i), Key: box.Intersect(world)}
	}
	return out
}

func uniformParams(extent, maxSize float64, seed int64) (*rand.Rand, float64, float64) {
	if extent < 1 {
		extent = 1
	}
	if maxSize < 0.001 {
		maxSize = 0.001
	}
	if seed == 0 {
		seed = 13
	}
	return rand.New(rand.NewSource(seed)), extent, maxSize
}
