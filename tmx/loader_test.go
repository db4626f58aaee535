package tmx_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-libtmx/internal"
	"github.com/eak1mov/go-libtmx/source"
	"github.com/eak1mov/go-libtmx/tmx"
)

const minimalMap = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" source="ground.tsx"/>
</map>
`

func sharedDocuments() map[string]string {
	return map[string]string{
		"a.tmx":      minimalMap,
		"b.tmx":      minimalMap,
		"ground.tsx": groundTSX,
	}
}

func TestLoaderCaching(t *testing.T) {
	dir := internal.WriteDocuments(t, sharedDocuments())
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})

	first, err := loader.ReadMap(filepath.Join(dir, "a.tmx"))
	if err != nil {
		t.Fatalf("ReadMap failed: %v", err)
	}
	second, err := loader.ReadMap(filepath.Join(dir, "a.tmx"))
	if err != nil {
		t.Fatalf("ReadMap failed: %v", err)
	}
	if first != second {
		t.Error("repeated ReadMap returned a different document")
	}

	other, err := loader.ReadMap(filepath.Join(dir, "b.tmx"))
	if err != nil {
		t.Fatalf("ReadMap failed: %v", err)
	}
	if got, want := other.Tilesets[0].Tileset, first.Tilesets[0].Tileset; got != want {
		t.Error("maps referencing the same tileset file got different tilesets")
	}

	// The external tileset is also directly readable and shared.
	ts, err := loader.ReadTileset(filepath.Join(dir, "ground.tsx"))
	if err != nil {
		t.Fatalf("ReadTileset failed: %v", err)
	}
	if ts != first.Tilesets[0].Tileset {
		t.Error("ReadTileset returned a different tileset than the map reference")
	}
}

func TestLoaderForget(t *testing.T) {
	dir := internal.WriteDocuments(t, sharedDocuments())
	mapA := filepath.Join(dir, "a.tmx")
	mapB := filepath.Join(dir, "b.tmx")
	tileset := filepath.Join(dir, "ground.tsx")

	t.Run("CascadeSweepsOrphans", func(t *testing.T) {
		loader := tmx.NewLocalLoader(tmx.LoaderParams{})
		m, err := loader.ReadMap(mapA)
		if err != nil {
			t.Fatalf("ReadMap failed: %v", err)
		}
		before := m.Tilesets[0].Tileset

		if !loader.Forget(mapA, true) {
			t.Fatal("Forget(a.tmx) = false, want = true")
		}
		after, err := loader.ReadTileset(tileset)
		if err != nil {
			t.Fatalf("ReadTileset failed: %v", err)
		}
		if after == before {
			t.Error("tileset survived a cascading forget of its only referrer")
		}
	})

	t.Run("CascadeKeepsShared", func(t *testing.T) {
		loader := tmx.NewLocalLoader(tmx.LoaderParams{})
		mA, err := loader.ReadMap(mapA)
		if err != nil {
			t.Fatalf("ReadMap failed: %v", err)
		}
		if _, err := loader.ReadMap(mapB); err != nil {
			t.Fatalf("ReadMap failed: %v", err)
		}
		before := mA.Tilesets[0].Tileset

		loader.Forget(mapA, true)
		after, err := loader.ReadTileset(tileset)
		if err != nil {
			t.Fatalf("ReadTileset failed: %v", err)
		}
		if after != before {
			t.Error("tileset still referenced by b.tmx was swept")
		}
	})

	t.Run("NoCascadeKeepsReferents", func(t *testing.T) {
		loader := tmx.NewLocalLoader(tmx.LoaderParams{})
		m, err := loader.ReadMap(mapA)
		if err != nil {
			t.Fatalf("ReadMap failed: %v", err)
		}
		before := m.Tilesets[0].Tileset

		loader.Forget(mapA, false)
		after, err := loader.ReadTileset(tileset)
		if err != nil {
			t.Fatalf("ReadTileset failed: %v", err)
		}
		if after != before {
			t.Error("non-cascading forget dropped the referenced tileset")
		}
	})

	t.Run("UnknownPath", func(t *testing.T) {
		loader := tmx.NewLocalLoader(tmx.LoaderParams{})
		if loader.Forget(filepath.Join(dir, "never-read.tmx"), true) {
			t.Error("Forget(unknown) = true, want = false")
		}
	})

	t.Run("ForgetAll", func(t *testing.T) {
		loader := tmx.NewLocalLoader(tmx.LoaderParams{})
		m, err := loader.ReadMap(mapA)
		if err != nil {
			t.Fatalf("ReadMap failed: %v", err)
		}
		loader.ForgetAll()
		reread, err := loader.ReadMap(mapA)
		if err != nil {
			t.Fatalf("ReadMap failed: %v", err)
		}
		if reread == m {
			t.Error("ReadMap after ForgetAll returned the evicted document")
		}
	})
}

func TestLoaderExtensionCheck(t *testing.T) {
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})

	if _, err := loader.ReadMap("ground.tsx"); !errors.Is(err, tmx.ErrExtension) {
		t.Errorf("ReadMap(.tsx) error = %v, want = %v", err, tmx.ErrExtension)
	}
	if _, err := loader.ReadTileset("map.tmx"); !errors.Is(err, tmx.ErrExtension) {
		t.Errorf("ReadTileset(.tmx) error = %v, want = %v", err, tmx.ErrExtension)
	}
	if _, err := loader.ReadTemplate("object.json"); !errors.Is(err, tmx.ErrExtension) {
		t.Errorf("ReadTemplate(.json) error = %v, want = %v", err, tmx.ErrExtension)
	}
}

func TestLoaderWrongKind(t *testing.T) {
	// .xml is acceptable for every document kind, so a cached map can be
	// requested as a tileset; the cache must refuse the mismatch.
	dir := internal.WriteDocuments(t, map[string]string{
		"doc.xml": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16"/>
`,
	})
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})

	path := filepath.Join(dir, "doc.xml")
	if _, err := loader.ReadMap(path); err != nil {
		t.Fatalf("ReadMap failed: %v", err)
	}
	if _, err := loader.ReadTileset(path); !errors.Is(err, tmx.ErrWrongKind) {
		t.Errorf("ReadTileset error = %v, want = %v", err, tmx.ErrWrongKind)
	}
}

func TestLoaderRetryAfterFailure(t *testing.T) {
	// A failed parse leaves no cache entry behind, so fixing the file and
	// reading again succeeds.
	dir := internal.WriteDocuments(t, map[string]string{
		"map.tmx": `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" width="1" height="1" tilewidth="16" tileheight="16"/>
`,
	})
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})

	path := filepath.Join(dir, "map.tmx")
	if _, err := loader.ReadMap(path); err == nil {
		t.Fatal("ReadMap succeeded on a map without orientation")
	}

	fixed := `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16"/>
`
	if err := os.WriteFile(path, []byte(fixed), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if _, err := loader.ReadMap(path); err != nil {
		t.Errorf("ReadMap after fix failed: %v", err)
	}
}

func TestLoaderCustomSource(t *testing.T) {
	// Any path-addressed storage can back a loader; references between the
	// documents resolve inside the source.
	loader := tmx.NewLoader(internal.MemorySource{
		"maps/a.tmx":      minimalMap,
		"maps/ground.tsx": groundTSX,
	}, tmx.LoaderParams{})

	m, err := loader.ReadMap("maps/a.tmx")
	if err != nil {
		t.Fatalf("ReadMap failed: %v", err)
	}
	ts, err := loader.ReadTileset("maps/ground.tsx")
	if err != nil {
		t.Fatalf("ReadTileset failed: %v", err)
	}
	if ts != m.Tilesets[0].Tileset {
		t.Error("map reference and direct read got different tilesets")
	}
	if _, err := loader.ReadMap("maps/absent.tmx"); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("ReadMap error = %v, want = %v", err, source.ErrNotFound)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})
	_, err := loader.ReadMap(filepath.Join(t.TempDir(), "absent.tmx"))
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("ReadMap error = %v, want = %v", err, source.ErrNotFound)
	}
}
