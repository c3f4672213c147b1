package config

import (
	"os"
	"path/filepath"
	"testing"
)

func expect(t testing.TB, what bool) {
	t.Helper()
	if !what {
		t.Fatal("expectation failed")
	}
}

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geotree.json")
	expect(t, os.WriteFile(path, []byte(doc), 0666) == nil)
	return path
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	expect(t, err == nil)
	expect(t, c.String(KeyKind, "box") == "box")
	expect(t, c.Int(DatasetSize, 1000) == 1000)
	expect(t, c.Float(Extent, 10) == 10)
}

func TestFileValues(t *testing.T) {
	path := writeConfig(t, `{
		"key_kind": "point",
		"dataset_size": 5000,
		"extent": 2.5
	}`)
	c, err := Load(path)
	expect(t, err == nil)
	expect(t, c.String(KeyKind, "box") == "point")
	expect(t, c.Int(DatasetSize, 0) == 5000)
	expect(t, c.Float(Extent, 0) == 2.5)
	expect(t, c.Int(MaxNodeElements, 64) == 64)
}

func TestPrecedence(t *testing.T) {
	path := writeConfig(t, `{"dataset_size": 5000}`)
	c, err := Load(path)
	expect(t, err == nil)

	// Env loses to the file, overrides beat both.
	t.Setenv("GEOTREE_dataset_size", "7000")
	t.Setenv("GEOTREE_seed", "99")
	expect(t, c.Int(DatasetSize, 0) == 5000)
	expect(t, c.Int(Seed, 13) == 99)
	c.Set(DatasetSize, "123")
	expect(t, c.Int(DatasetSize, 0) == 123)
}

func TestBadValuesFallBack(t *testing.T) {
	path := writeConfig(t, `{"dataset_size": "lots", "extent": "wide"}`)
	c, err := Load(path)
	expect(t, err == nil)
	expect(t, c.Int(DatasetSize, 42) == 42)
	expect(t, c.Float(Extent, 1.5) == 1.5)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geotree.json")
	c, err := Load(path)
	expect(t, err == nil)
	c.Set(KeyKind, "point")
	c.Set(DatasetSize, "250")
	expect(t, c.Write() == nil)

	c2, err := Load(path)
	expect(t, err == nil)
	expect(t, c2.String(KeyKind, "box") == "point")
	expect(t, c2.Int(DatasetSize, 0) == 250)
}
