package store

import (
	"database/sql"
	"fmt"
)

type Robot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	IP   string `json:"ip"`
}

const robotSelectCols = `id, name, ip`

func scanRobot(row interface{ Scan(...any) error }) (*Robot, error) {
	var r Robot
	if err := row.Scan(&r.ID, &r.Name, &r.IP); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRobots(rows *sql.Rows) ([]*Robot, error) {
	var robots []*Robot
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
	}
	return robots, rows.Err()
}

func (db *DB) CreateRobot(r *Robot) error {
	id, err := db.insertID(db.Q(`INSERT INTO robots (name, ip) VALUES (?, ?)`), r.Name, r.IP)
	if err != nil {
		return fmt.Errorf("create robot: %w", err)
	}
	r.ID = id
	return nil
}

func (db *DB) UpdateRobot(r *Robot) error {
	_, err := db.Exec(db.Q(`UPDATE robots SET name=?, ip=? WHERE id=?`), r.Name, r.IP, r.ID)
	return err
}

func (db *DB) DeleteRobot(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM robots WHERE id=?`), id)
	return err
}

func (db *DB) GetRobot(id int64) (*Robot, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM robots WHERE id=?`, robotSelectCols)), id)
	return scanRobot(row)
}

func (db *DB) GetRobotByName(name string) (*Robot, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM robots WHERE name=?`, robotSelectCols)), name)
	return scanRobot(row)
}

func (db *DB) ListRobots() ([]*Robot, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM robots ORDER BY name`, robotSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRobots(rows)
}
