package tmx_test

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/eak1mov/go-libtmx/internal"
	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx"
	"github.com/eak1mov/go-libtmx/tmx/spec"
)

const groundTSX = `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="ground" tilewidth="16" tileheight="16" tilecount="4" columns="2">
 <image source="ground.png" width="32" height="32"/>
 <tile id="3" class="lava">
  <properties>
   <property name="damage" type="int" value="10"/>
  </properties>
 </tile>
</tileset>
`

func readMap(t *testing.T, documents map[string]string) *tiled.Map {
	t.Helper()

	dir := internal.WriteDocuments(t, documents)
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})
	m, err := loader.ReadMap(filepath.Join(dir, "map.tmx"))
	if err != nil {
		t.Fatalf("ReadMap failed: %v", err)
	}
	return m
}

func tileLayer(t *testing.T, m *tiled.Map, name string) *tiled.TileLayer {
	t.Helper()

	layer, ok := m.LayerWithName(name).(*tiled.TileLayer)
	if !ok {
		t.Fatalf("layer %q is not a tile layer", name)
	}
	return layer
}

func TestReadMapCSV(t *testing.T) {
	m := readMap(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="2" height="2" tilewidth="16" tileheight="16">
 <tileset firstgid="1" source="ground.tsx"/>
 <layer id="1" name="terrain" width="2" height="2">
  <data encoding="csv">
2,0,
4,2147483650
  </data>
 </layer>
</map>
`,
		"ground.tsx": groundTSX,
	})

	layer := tileLayer(t, m, "terrain")
	if got, want := layer.Grid().Bounds(), (tiled.Bounds{X1: 0, Y1: 0, X2: 1, Y2: 1}); got != want {
		t.Fatalf("Bounds = %+v, want = %+v", got, want)
	}
	if got := layer.TileAt(0, 0); got == nil || got.ID != 1 {
		t.Errorf("TileAt(0, 0) = %v, want tile 1", got)
	}
	if got := layer.TileAt(1, 0); got != nil {
		t.Errorf("TileAt(1, 0) = %v, want = nil", got)
	}
	if got := layer.TileAt(0, 1); got == nil || got.ID != 3 {
		t.Errorf("TileAt(0, 1) = %v, want tile 3", got)
	}
	if got := layer.TileAt(0, 1); got != nil && got.Properties.Int("damage") != 10 {
		t.Errorf("tile property damage = %v, want = 10", got.Properties.Int("damage"))
	}
	// 2147483650 = gid 2 with the horizontal flip bit.
	if got := layer.TileAt(1, 1); got == nil || got.ID != 1 {
		t.Errorf("TileAt(1, 1) = %v, want tile 1", got)
	}
	if got, want := layer.FlipsAt(1, 1), (tiled.Flips{Horizontal: true}); got != want {
		t.Errorf("FlipsAt(1, 1) = %+v, want = %+v", got, want)
	}
}

func TestReadMapBase64(t *testing.T) {
	cells := []uint32{2, 0, 3, 2 | 0x80000000}
	raw := make([]byte, 4*len(cells))
	for i, cell := range cells {
		binary.LittleEndian.PutUint32(raw[4*i:], cell)
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("zlib write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close failed: %v", err)
	}
	payload := base64.StdEncoding.EncodeToString(buf.Bytes())

	m := readMap(t, map[string]string{
		"map.tmx": fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="2" height="2" tilewidth="16" tileheight="16">
 <tileset firstgid="1" source="ground.tsx"/>
 <layer id="1" name="terrain" width="2" height="2">
  <data encoding="base64" compression="zlib">%v</data>
 </layer>
</map>
`, payload),
		"ground.tsx": groundTSX,
	})

	layer := tileLayer(t, m, "terrain")
	if got := layer.TileAt(0, 0); got == nil || got.ID != 1 {
		t.Errorf("TileAt(0, 0) = %v, want tile 1", got)
	}
	if got := layer.TileAt(0, 1); got == nil || got.ID != 2 {
		t.Errorf("TileAt(0, 1) = %v, want tile 2", got)
	}
	if got, want := layer.FlipsAt(1, 1), (tiled.Flips{Horizontal: true}); got != want {
		t.Errorf("FlipsAt(1, 1) = %+v, want = %+v", got, want)
	}
}

func TestReadMapInlineTiles(t *testing.T) {
	m := readMap(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="2" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" source="ground.tsx"/>
 <layer id="1" name="terrain" width="2" height="1">
  <data>
   <tile gid="4"/>
   <tile/>
  </data>
 </layer>
</map>
`,
		"ground.tsx": groundTSX,
	})

	layer := tileLayer(t, m, "terrain")
	if got := layer.TileAt(0, 0); got == nil || got.ID != 3 {
		t.Errorf("TileAt(0, 0) = %v, want tile 3", got)
	}
	if got := layer.TileAt(1, 0); got != nil {
		t.Errorf("TileAt(1, 0) = %v, want = nil", got)
	}
}

func TestReadMapInfiniteChunks(t *testing.T) {
	m := readMap(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="4" height="4" tilewidth="16" tileheight="16" infinite="1">
 <tileset firstgid="1" source="ground.tsx"/>
 <layer id="1" name="terrain" width="4" height="4">
  <data encoding="csv">
   <chunk x="-4" y="0" width="4" height="4">
2,0,0,0,
0,0,0,0,
0,0,0,0,
0,0,0,0
   </chunk>
   <chunk x="0" y="4" width="4" height="4">
0,0,0,0,
0,0,0,0,
0,0,0,0,
0,0,0,3
   </chunk>
  </data>
 </layer>
</map>
`,
		"ground.tsx": groundTSX,
	})

	layer := tileLayer(t, m, "terrain")
	if got, want := layer.Grid().Bounds(), (tiled.Bounds{X1: -4, Y1: 0, X2: 3, Y2: 7}); got != want {
		t.Fatalf("Bounds = %+v, want = %+v", got, want)
	}
	if got := layer.TileAt(-4, 0); got == nil || got.ID != 1 {
		t.Errorf("TileAt(-4, 0) = %v, want tile 1", got)
	}
	if got := layer.TileAt(3, 7); got == nil || got.ID != 2 {
		t.Errorf("TileAt(3, 7) = %v, want tile 2", got)
	}
	if got := layer.TileAt(0, 0); got != nil {
		t.Errorf("TileAt(0, 0) = %v, want = nil", got)
	}
}

func TestReadMapObjects(t *testing.T) {
	m := readMap(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="4" height="4" tilewidth="16" tileheight="16">
 <objectgroup id="1" name="things">
  <object id="1" name="door" type="portal" x="16" y="32" width="16" height="16">
   <properties>
    <property name="leads_to" type="object" value="3"/>
   </properties>
  </object>
  <object id="2" name="spawn" x="8" y="8">
   <point/>
  </object>
  <object id="3" name="exit" x="48" y="48" width="16" height="16">
   <ellipse/>
  </object>
  <object id="4" name="path" x="0" y="0">
   <polyline points="0,0 16,8 32,-8"/>
  </object>
 </objectgroup>
</map>
`,
	})

	layer, ok := m.LayerWithName("things").(*tiled.ObjectLayer)
	if !ok {
		t.Fatal("layer \"things\" is not an object layer")
	}
	if got, want := len(layer.Objects), 4; got != want {
		t.Fatalf("len(Objects) = %v, want = %v", got, want)
	}

	door := layer.ObjectWithID(1)
	if got, want := door.Class, "portal"; got != want {
		t.Errorf("door.Class = %q, want = %q", got, want)
	}
	// The property references an object declared later in the document.
	if got, want := door.Properties.Object("leads_to"), layer.ObjectWithID(3); got != want {
		t.Errorf("leads_to = %v, want = %v", got, want)
	}

	if got, want := layer.ObjectWithID(2).Kind, tiled.ObjectPoint; got != want {
		t.Errorf("spawn.Kind = %v, want = %v", got, want)
	}
	if got, want := layer.ObjectWithID(3).Kind, tiled.ObjectEllipse; got != want {
		t.Errorf("exit.Kind = %v, want = %v", got, want)
	}

	path := layer.ObjectWithID(4)
	if got, want := path.Kind, tiled.ObjectPolyline; got != want {
		t.Errorf("path.Kind = %v, want = %v", got, want)
	}
	wantPoints := []tiled.Point{{X: 0, Y: 0}, {X: 16, Y: 8}, {X: 32, Y: -8}}
	if len(path.Points) != len(wantPoints) {
		t.Fatalf("path.Points = %v, want = %v", path.Points, wantPoints)
	}
	for i, want := range wantPoints {
		if path.Points[i] != want {
			t.Errorf("path.Points[%v] = %+v, want = %+v", i, path.Points[i], want)
		}
	}
}

func TestReadMapTemplateObject(t *testing.T) {
	m := readMap(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="4" height="4" tilewidth="16" tileheight="16">
 <objectgroup id="1" name="things">
  <object id="7" name="hero" x="5" y="6" template="chest.tx"/>
 </objectgroup>
</map>
`,
		"chest.tx": `<?xml version="1.0" encoding="UTF-8"?>
<template>
 <tileset firstgid="1" source="ground.tsx"/>
 <object name="chest" gid="2" width="16" height="16">
  <properties>
   <property name="loot" type="int" value="5"/>
  </properties>
 </object>
</template>
`,
		"ground.tsx": groundTSX,
	})

	layer := m.LayerWithName("things").(*tiled.ObjectLayer)
	obj := layer.ObjectWithID(7)
	if obj == nil {
		t.Fatal("object 7 not found")
	}
	if got, want := obj.Name, "hero"; got != want {
		t.Errorf("Name = %q, want = %q", got, want)
	}
	if got, want := obj.Width, 16.0; got != want {
		t.Errorf("Width = %v, want = %v", got, want)
	}
	if got, want := obj.X, 5.0; got != want {
		t.Errorf("X = %v, want = %v", got, want)
	}
	if got, want := obj.Kind, tiled.ObjectTile; got != want {
		t.Errorf("Kind = %v, want = %v", got, want)
	}
	if obj.Tile == nil || obj.Tile.ID != 1 {
		t.Errorf("Tile = %v, want tile 1", obj.Tile)
	}
	if got, want := obj.Properties.Int("loot"), 5; got != want {
		t.Errorf("loot = %v, want = %v", got, want)
	}
	if obj.Template == "" {
		t.Error("Template path not recorded")
	}
}

func TestReadMapGroupAndImageLayers(t *testing.T) {
	m := readMap(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="4" height="4" tilewidth="16" tileheight="16">
 <group id="1" name="background" opacity="0.5">
  <imagelayer id="2" name="sky" repeatx="1">
   <image source="sky.png" width="256" height="64"/>
  </imagelayer>
 </group>
</map>
`,
	})

	group, ok := m.Layers[0].(*tiled.GroupLayer)
	if !ok {
		t.Fatal("layer 0 is not a group")
	}
	if got, want := group.Opacity, 0.5; got != want {
		t.Errorf("Opacity = %v, want = %v", got, want)
	}
	image, ok := group.Layers[0].(*tiled.ImageLayer)
	if !ok {
		t.Fatal("nested layer is not an image layer")
	}
	if !image.RepeatX || image.RepeatY {
		t.Errorf("Repeat = (%v, %v), want = (true, false)", image.RepeatX, image.RepeatY)
	}
	if image.Image == nil || image.Image.Width != 256 {
		t.Errorf("Image = %+v, want width 256", image.Image)
	}
}

func TestReadTilesetWangSets(t *testing.T) {
	dir := internal.WriteDocuments(t, map[string]string{
		"terrain.tsx": `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="terrain" tilewidth="16" tileheight="16" tilecount="4" columns="2">
 <image source="terrain.png" width="32" height="32"/>
 <wangsets>
  <wangset name="shores" type="corner" tile="0">
   <wangcolor name="grass" color="#00ff00" tile="1" probability="1"/>
   <wangcolor name="water" color="#0000ff" tile="-1"/>
   <wangtile tileid="0" wangid="0x10101010"/>
   <wangtile tileid="3" wangid="0x20102010"/>
  </wangset>
 </wangsets>
</tileset>
`,
	})
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})
	ts, err := loader.ReadTileset(filepath.Join(dir, "terrain.tsx"))
	if err != nil {
		t.Fatalf("ReadTileset failed: %v", err)
	}

	if got, want := len(ts.WangSets), 1; got != want {
		t.Fatalf("len(WangSets) = %v, want = %v", got, want)
	}
	set := ts.WangSets[0]
	if got, want := set.Type, tiled.WangSetCorner; got != want {
		t.Errorf("Type = %v, want = %v", got, want)
	}
	if set.Tile == nil || set.Tile.ID != 0 {
		t.Errorf("Tile = %v, want tile 0", set.Tile)
	}
	if got, want := len(set.Colors), 2; got != want {
		t.Fatalf("len(Colors) = %v, want = %v", got, want)
	}
	if set.Colors[0].Tile == nil || set.Colors[0].Tile.ID != 1 {
		t.Errorf("grass.Tile = %v, want tile 1", set.Colors[0].Tile)
	}
	if set.Colors[1].Tile != nil {
		t.Errorf("water.Tile = %v, want = nil", set.Colors[1].Tile)
	}

	if got, want := len(set.Tiles), 2; got != want {
		t.Fatalf("len(Tiles) = %v, want = %v", got, want)
	}
	// 0x10101010 colors every corner with the first color.
	first := set.Tiles[0]
	if first.Tile == nil || first.Tile.ID != 0 {
		t.Fatalf("Tiles[0].Tile = %v, want tile 0", first.Tile)
	}
	for direction, color := range first.Colors {
		if direction%2 == 0 {
			if color != nil {
				t.Errorf("Colors[%v] = %v, want = nil", direction, color)
			}
			continue
		}
		if color != set.Colors[0] {
			t.Errorf("Colors[%v] = %v, want grass", direction, color)
		}
	}
	// 0x20102010 alternates the two colors on the corners.
	second := set.Tiles[1]
	if got, want := second.Colors[1], set.Colors[0]; got != want {
		t.Errorf("Colors[1] = %v, want grass", got)
	}
	if got, want := second.Colors[3], set.Colors[1]; got != want {
		t.Errorf("Colors[3] = %v, want water", got)
	}
}

func TestReadTilesetAnimationAndGeometry(t *testing.T) {
	dir := internal.WriteDocuments(t, map[string]string{
		"anim.tsx": `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="anim" tilewidth="8" tileheight="8" tilecount="4" columns="2" margin="1" spacing="2">
 <image source="anim.png" width="21" height="21"/>
 <tile id="0">
  <animation>
   <frame tileid="0" duration="100"/>
   <frame tileid="1" duration="250"/>
  </animation>
 </tile>
</tileset>
`,
	})
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})
	ts, err := loader.ReadTileset(filepath.Join(dir, "anim.tsx"))
	if err != nil {
		t.Fatalf("ReadTileset failed: %v", err)
	}

	if got, want := len(ts.Tiles), 4; got != want {
		t.Fatalf("len(Tiles) = %v, want = %v", got, want)
	}
	// margin 1, spacing 2: tile 3 is at column 1, row 1.
	tile := ts.Tile(3)
	if got, want := tile.X, 11; got != want {
		t.Errorf("Tile(3).X = %v, want = %v", got, want)
	}
	if got, want := tile.Y, 11; got != want {
		t.Errorf("Tile(3).Y = %v, want = %v", got, want)
	}

	animation := ts.Tile(0).Animation
	if got, want := len(animation), 2; got != want {
		t.Fatalf("len(Animation) = %v, want = %v", got, want)
	}
	if got, want := animation[1].Duration, 250*time.Millisecond; got != want {
		t.Errorf("Duration = %v, want = %v", got, want)
	}
	if got, want := animation[1].TileID, uint32(1); got != want {
		t.Errorf("TileID = %v, want = %v", got, want)
	}
}

func TestReadMapErrors(t *testing.T) {
	for _, tc := range []struct {
		Name      string
		Documents map[string]string
		Want      error
	}{
		{
			Name: "GIDConflict",
			Documents: map[string]string{
				"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" name="a" tilewidth="16" tileheight="16">
  <tile id="0"/>
 </tileset>
 <tileset firstgid="1" name="b" tilewidth="16" tileheight="16">
  <tile id="0"/>
 </tileset>
</map>
`,
			},
			Want: tmx.ErrGIDConflict,
		},
		{
			Name: "MissingRequiredAttribute",
			Documents: map[string]string{
				"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <layer id="1" name="broken" height="1"/>
</map>
`,
			},
			Want: spec.ErrMissingAttribute,
		},
		{
			Name: "UnresolvedObjectReference",
			Documents: map[string]string{
				"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <objectgroup id="1" name="things">
  <object id="1" x="0" y="0">
   <properties>
    <property name="target" type="object" value="99"/>
   </properties>
  </object>
 </objectgroup>
</map>
`,
			},
			Want: tmx.ErrUnresolvedRef,
		},
		{
			Name: "CompressionWithoutBase64",
			Documents: map[string]string{
				"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <layer id="1" name="terrain" width="1" height="1">
  <data encoding="csv" compression="zlib">0</data>
 </layer>
</map>
`,
			},
			Want: spec.ErrBadCompression,
		},
		{
			Name: "NoDocumentElement",
			Documents: map[string]string{
				"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<notamap/>
`,
			},
			Want: tmx.ErrNoDocument,
		},
		{
			Name: "TruncatedDocument",
			Documents: map[string]string{
				"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <layer id="1" name="terrain" width="1" height="1">
`,
			},
			Want: tmx.ErrUnexpectedEOF,
		},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			dir := internal.WriteDocuments(t, tc.Documents)
			loader := tmx.NewLocalLoader(tmx.LoaderParams{})
			_, err := loader.ReadMap(filepath.Join(dir, "map.tmx"))
			if !errors.Is(err, tc.Want) {
				t.Errorf("ReadMap error = %v, want = %v", err, tc.Want)
			}
			var parseErr *tmx.ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("ReadMap error = %T, want *tmx.ParseError", err)
			}
		})
	}
}

func TestReadMapSelfReference(t *testing.T) {
	dir := internal.WriteDocuments(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <objectgroup id="1" name="things">
  <object id="1" x="0" y="0" template="loop.tx"/>
 </objectgroup>
</map>
`,
		"loop.tx": `<?xml version="1.0" encoding="UTF-8"?>
<template>
 <tileset firstgid="1" source="loop.tx"/>
 <object name="loop"/>
</template>
`,
	})
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})
	_, err := loader.ReadMap(filepath.Join(dir, "map.tmx"))
	if !errors.Is(err, tmx.ErrSelfReference) {
		t.Errorf("ReadMap error = %v, want = %v", err, tmx.ErrSelfReference)
	}
}

func TestReadMapIgnoresUnknownContent(t *testing.T) {
	// Unknown elements and a redundant properties block are recoverable:
	// the first properties block wins and parsing continues.
	m := readMap(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16" bogus="1">
 <editorsettings>
  <export target="foo"/>
 </editorsettings>
 <properties>
  <property name="title" value="first"/>
 </properties>
 <properties>
  <property name="title" value="second"/>
 </properties>
 <layer id="1" name="terrain" width="1" height="1">
  <data encoding="csv">0</data>
 </layer>
</map>
`,
	})

	if got, want := m.Properties.String("title"), "first"; got != want {
		t.Errorf("title = %q, want = %q", got, want)
	}
	if got, want := len(m.Layers), 1; got != want {
		t.Errorf("len(Layers) = %v, want = %v", got, want)
	}
}
