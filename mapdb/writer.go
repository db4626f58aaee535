// Package mapdb exports parsed map documents to a SQLite database, one row
// per tile placement and per object.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mapdb

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/eak1mov/go-libtmx/tiled"
)

// Writer writes one map document into a SQLite file.
type Writer struct {
	db        *sql.DB
	placement *sql.Stmt
	object    *sql.Stmt
	logger    *slog.Logger
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new Writer for the given output file path. It applies
// given options and initializes the database schema.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE placements (
			layer_id INTEGER,
			layer_name TEXT,
			x INTEGER,
			y INTEGER,
			tile_id INTEGER,
			flip_h INTEGER,
			flip_v INTEGER,
			flip_d INTEGER
		);
		CREATE TABLE objects (
			layer_id INTEGER,
			object_id INTEGER,
			name TEXT,
			class TEXT,
			kind INTEGER,
			x REAL,
			y REAL,
			width REAL,
			height REAL,
			rotation REAL
		);
	`)
	if err != nil {
		return nil, err
	}

	for k, v := range config.Metadata {
		_, err = db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	placement, err := db.Prepare(
		"INSERT INTO placements (layer_id, layer_name, x, y, tile_id, flip_h, flip_v, flip_d) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	object, err := db.Prepare(
		"INSERT INTO objects (layer_id, object_id, name, class, kind, x, y, width, height, rotation) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}

	return &Writer{db: db, placement: placement, object: object, logger: config.Logger}, nil
}

func (w *Writer) Close() error {
	return errors.Join(w.placement.Close(), w.object.Close(), w.db.Close())
}

// WriteMap writes every tile placement and object of the map, walking group
// layers recursively.
func (w *Writer) WriteMap(m *tiled.Map) error {
	return w.writeLayers(m.Layers)
}

func (w *Writer) writeLayers(layers []tiled.Layer) error {
	for _, layer := range layers {
		if err := w.WriteLayer(layer); err != nil {
			return err
		}
	}
	return nil
}

// WriteLayer writes one layer of any kind; image layers carry no rows.
func (w *Writer) WriteLayer(layer tiled.Layer) error {
	switch l := layer.(type) {
	case *tiled.TileLayer:
		return w.WriteTileLayer(l)
	case *tiled.ObjectLayer:
		return w.WriteObjectLayer(l)
	case *tiled.GroupLayer:
		return w.writeLayers(l.Layers)
	}
	return nil
}

func (w *Writer) WriteTileLayer(layer *tiled.TileLayer) error {
	grid := layer.Grid()
	bounds := grid.Bounds()
	for y := bounds.Y1; y <= bounds.Y2; y++ {
		for x := bounds.X1; x <= bounds.X2; x++ {
			tile := grid.TileAt(x, y)
			if tile == nil {
				continue
			}
			flips := grid.FlipsAt(x, y)
			_, err := w.placement.Exec(layer.ID, layer.Name, x, y, tile.ID,
				flips.Horizontal, flips.Vertical, flips.Diagonal)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) WriteObjectLayer(layer *tiled.ObjectLayer) error {
	for _, obj := range layer.Objects {
		_, err := w.object.Exec(layer.ID, obj.ID, obj.Name, obj.Class, obj.Kind,
			obj.X, obj.Y, obj.Width, obj.Height, obj.Rotation)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) Finalize() error {
	w.logger.Debug("libtmx: creating index")
	_, err := w.db.Exec("CREATE INDEX placement_index ON placements (layer_id, x, y)")
	w.logger.Debug("libtmx: done!")
	return err
}
