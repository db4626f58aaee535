package mapdb

import (
	"database/sql"
	"errors"
	"fmt"
)

// Placement is one exported tile placement row.
type Placement struct {
	LayerID   int
	LayerName string
	X         int
	Y         int
	TileID    uint32
	FlipH     bool
	FlipV     bool
	FlipD     bool
}

// Reader reads back a database written by Writer.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader opens the given database read-only.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare(
		"SELECT tile_id, flip_h, flip_v, flip_d FROM placements WHERE layer_id = ? AND x = ? AND y = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

// ReadPlacement looks up one cell of one layer. A cell without a placement
// returns ok = false.
func (r *Reader) ReadPlacement(layerID, x, y int) (Placement, bool, error) {
	p := Placement{LayerID: layerID, X: x, Y: y}
	err := r.stmt.QueryRow(layerID, x, y).Scan(&p.TileID, &p.FlipH, &p.FlipV, &p.FlipD)
	if errors.Is(err, sql.ErrNoRows) {
		return Placement{}, false, nil
	}
	if err != nil {
		return Placement{}, false, err
	}
	return p, true, nil
}

// VisitPlacements calls visitor for every placement row.
func (r *Reader) VisitPlacements(visitor func(Placement) error) error {
	rows, err := r.db.Query(
		"SELECT layer_id, layer_name, x, y, tile_id, flip_h, flip_v, flip_d FROM placements")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p Placement
		if err := rows.Scan(&p.LayerID, &p.LayerName, &p.X, &p.Y, &p.TileID, &p.FlipH, &p.FlipV, &p.FlipD); err != nil {
			return err
		}
		if err := visitor(p); err != nil {
			return err
		}
	}

	return rows.Err()
}
