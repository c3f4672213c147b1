package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/geotoolbox/geotree/geom"
)

func expect(t testing.TB, what bool) {
	t.Helper()
	if !what {
		t.Fatal("expectation failed")
	}
}

func TestParseGeoJSONCollection(t *testing.T) {
	doc := `{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","id":7,"properties":{},
			 "geometry":{"type":"Point","coordinates":[1,2]}},
			{"type":"Feature","properties":{"id":42},
			 "geometry":{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,3],[0,3],[0,0]]]}},
			{"type":"Feature","properties":{},
			 "geometry":{"type":"LineString","coordinates":[[5,5],[6,7]]}}
		]
	}`
	feats, err := ParseGeoJSON(doc)
	expect(t, err == nil)
	expect(t, len(feats) == 3)

	expect(t, feats[0].ID == 7)
	expect(t, feats[0].Key == geom.R(1, 2, 1, 2))

	expect(t, feats[1].ID == 42)
	expect(t, feats[1].Key == geom.R(0, 0, 2, 3))

	// No id member: the position is the id.
	expect(t, feats[2].ID == 2)
	expect(t, feats[2].Key == geom.R(5, 5, 6, 7))
}

func TestParseGeoJSONSingleGeometry(t *testing.T) {
	feats, err := ParseGeoJSON(`{"type":"Point","coordinates":[3,4]}`)
	expect(t, err == nil)
	expect(t, len(feats) == 1)
	expect(t, feats[0].ID == 0)
	expect(t, feats[0].Key == geom.R(3, 4, 3, 4))
}

func TestParseGeoJSONInvalid(t *testing.T) {
	_, err := ParseGeoJSON(`{"type":`)
	expect(t, err != nil)
	_, err = ParseGeoJSON(`{"type":"FeatureCollection","features":[{"type":"Nope"}]}`)
	expect(t, err != nil)
}

func TestSaveLoadRoundTripBoxes(t *testing.T) {
	feats := UniformBoxes(25, 10, 0.5, 13)
	path := filepath.Join(t.TempDir(), "boxes.geojson")
	expect(t, SaveGeoJSON(path, feats) == nil)

	loaded, err := LoadGeoJSON(path)
	expect(t, err == nil)
	expect(t, len(loaded) == len(feats))
	for i := range feats {
		expect(t, loaded[i].ID == feats[i].ID)
		expect(t, loaded[i].Key == feats[i].Key)
	}
}

func TestSaveLoadRoundTripPoints(t *testing.T) {
	feats := UniformPoints(25, 10, 13)
	path := filepath.Join(t.TempDir(), "points.geojson")
	expect(t, SaveGeoJSON(path, feats) == nil)

	loaded, err := LoadGeoJSONPoints(path)
	expect(t, err == nil)
	expect(t, len(loaded) == len(feats))
	for i := range feats {
		expect(t, loaded[i].ID == feats[i].ID)
		expect(t, loaded[i].Key == feats[i].Key)
	}
}

func TestLoadGeoJSONMissingFile(t *testing.T) {
	_, err := LoadGeoJSON(filepath.Join(t.TempDir(), "nope.geojson"))
	expect(t, os.IsNotExist(err))
}

func TestUniformPoints(t *testing.T) {
	feats := UniformPoints(100, 10, 13)
	expect(t, len(feats) == 100)
	world := geom.R(0, 0, 10, 10)
	for i, f := range feats {
		expect(t, f.ID == int64(i))
		expect(t, world.ContainsPoint(f.Key))
	}
	// Same seed, same dataset.
	again := UniformPoints(100, 10, 13)
	for i := range feats {
		expect(t, feats[i] == again[i])
	}
	other := UniformPoints(100, 10, 14)
	same := true
	for i := range feats {
		same = same && feats[i] == other[i]
	}
	expect(t, !same)
}

func TestUniformBoxes(t *testing.T) {
	feats := UniformBoxes(100, 10, 0.5, 13)
	expect(t, len(feats) == 100)
	world := geom.R(0, 0, 10, 10)
	for i, f := range feats {
		expect(t, f.ID == int64(i))
		expect(t, world.ContainsRect(f.Key))
		expect(t, f.Key.Size(0) <= 0.5 && f.Key.Size(1) <= 0.5)
	}
}

func TestUniformStreamsAligned(t *testing.T) {
	// The point variant draws the same centers as the box variant so the
	// two key kinds describe the same underlying dataset.
	pts := UniformPoints(50, 10, 13)
	boxes := UniformBoxes(50, 10, 0.5, 13)
	for i := range pts {
		c := boxes[i].Key.Center()
		// Clipping can shift a box center by at most half its size.
		expect(t, geom.Dist(pts[i].Key, c) <= 0.5)
	}
}
