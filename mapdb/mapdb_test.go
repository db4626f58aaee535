package mapdb_test

import (
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-libtmx/mapdb"
	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
)

func buildMap() *tiled.Map {
	tile := &tiled.Tile{ID: 4}
	builder := tiled.NewGridBuilder()
	builder.Set(0, 0, tile, tiled.Flips{})
	builder.Set(2, 1, tile, tiled.Flips{Horizontal: true, Diagonal: true})

	terrain := &tiled.TileLayer{
		LayerInfo: tiled.LayerInfo{ID: 1, Name: "terrain"},
		Width:     3,
		Height:    2,
	}
	terrain.SetGrid(builder.Build())

	things := &tiled.ObjectLayer{
		LayerInfo: tiled.LayerInfo{ID: 2, Name: "things"},
		Objects: []*tiled.Object{
			{ID: 1, Name: "door", Class: "portal", X: 16, Y: 32, Width: 16, Height: 16},
		},
	}

	return &tiled.Map{
		Width:  3,
		Height: 2,
		Layers: []tiled.Layer{
			&tiled.GroupLayer{
				LayerInfo: tiled.LayerInfo{ID: 3, Name: "world"},
				Layers:    []tiled.Layer{terrain, things},
			},
		},
	}
}

func TestWriterReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")

	writer, err := mapdb.NewWriter(path, mapdb.WithMetadata(map[string]string{"name": "test"}))
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := writer.WriteMap(buildMap()); err != nil {
		t.Fatalf("WriteMap failed: %v", err)
	}
	if err := writer.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reader, err := mapdb.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	metadata, err := reader.ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if got, want := metadata["name"], "test"; got != want {
		t.Errorf("metadata[name] = %q, want = %q", got, want)
	}

	placements := make([]mapdb.Placement, 0)
	err = reader.VisitPlacements(func(p mapdb.Placement) error {
		placements = append(placements, p)
		return nil
	})
	if err != nil {
		t.Fatalf("VisitPlacements failed: %v", err)
	}
	want := []mapdb.Placement{
		{LayerID: 1, LayerName: "terrain", X: 0, Y: 0, TileID: 4},
		{LayerID: 1, LayerName: "terrain", X: 2, Y: 1, TileID: 4, FlipH: true, FlipD: true},
	}
	if !cmp.Equal(placements, want) {
		t.Errorf("VisitPlacements = %v, want = %v", placements, want)
	}

	got, ok, err := reader.ReadPlacement(1, 2, 1)
	if err != nil || !ok {
		t.Fatalf("ReadPlacement = (%v, %v), want a placement", ok, err)
	}
	if got.TileID != 4 || !got.FlipH || got.FlipV || !got.FlipD {
		t.Errorf("ReadPlacement = %+v, want tile 4 with H and D flips", got)
	}
	if _, ok, err := reader.ReadPlacement(1, 1, 0); err != nil || ok {
		t.Errorf("ReadPlacement(empty cell) = (%v, %v), want = (false, nil)", ok, err)
	}
}
