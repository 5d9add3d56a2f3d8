package store

import (
	"database/sql"
	"fmt"
)

// Pin is a named storage position on the warehouse map. Coords is the
// "x,y" string the dashboards and robots already exchange.
type Pin struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Coords string `json:"coords"`
}

const pinSelectCols = `id, name, coords`

func scanPin(row interface{ Scan(...any) error }) (*Pin, error) {
	var p Pin
	if err := row.Scan(&p.ID, &p.Name, &p.Coords); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPins(rows *sql.Rows) ([]*Pin, error) {
	var pins []*Pin
	for rows.Next() {
		p, err := scanPin(rows)
		if err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, rows.Err()
}

func (db *DB) CreatePin(p *Pin) error {
	id, err := db.insertID(db.Q(`INSERT INTO pins (name, coords) VALUES (?, ?)`), p.Name, p.Coords)
	if err != nil {
		return fmt.Errorf("create pin: %w", err)
	}
	p.ID = id
	return nil
}

func (db *DB) UpdatePin(p *Pin) error {
	_, err := db.Exec(db.Q(`UPDATE pins SET name=?, coords=? WHERE id=?`), p.Name, p.Coords, p.ID)
	return err
}

func (db *DB) DeletePin(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM pins WHERE id=?`), id)
	return err
}

func (db *DB) GetPin(id int64) (*Pin, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM pins WHERE id=?`, pinSelectCols)), id)
	return scanPin(row)
}

func (db *DB) GetPinByName(name string) (*Pin, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM pins WHERE name=?`, pinSelectCols)), name)
	return scanPin(row)
}

func (db *DB) ListPins() ([]*Pin, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM pins ORDER BY name`, pinSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPins(rows)
}
