package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Log is one workflow audit record. The referenced names are denormalized
// at write time so history survives renames and deletions.
type Log struct {
	ID           int64     `json:"id"`
	RobotName    string    `json:"robot_name"`
	RobotIP      string    `json:"robot_ip"`
	PinName      string    `json:"pin_name"`
	PinCoords    string    `json:"pin_coords"`
	CategoryName string    `json:"category_name"`
	StockName    string    `json:"stock_name"`
	StockID      int64     `json:"stock_id"`
	Quantity     int       `json:"quantity"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"created_at"`
}

const logSelectCols = `id, robot_name, robot_ip, pin_name, pin_coords, category_name, stock_name, stock_id, quantity, action, created_at`

func scanLog(row interface{ Scan(...any) error }) (*Log, error) {
	var l Log
	var stockID sql.NullInt64
	var createdAt any
	err := row.Scan(&l.ID, &l.RobotName, &l.RobotIP, &l.PinName, &l.PinCoords,
		&l.CategoryName, &l.StockName, &stockID, &l.Quantity, &l.Action, &createdAt)
	if err != nil {
		return nil, err
	}
	l.StockID = stockID.Int64
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

func (db *DB) AppendLog(l *Log) error {
	id, err := db.insertID(db.Q(`INSERT INTO logs
		(robot_name, robot_ip, pin_name, pin_coords, category_name, stock_name, stock_id, quantity, action)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		l.RobotName, l.RobotIP, l.PinName, l.PinCoords, l.CategoryName,
		l.StockName, nullID(l.StockID), l.Quantity, l.Action)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	l.ID = id
	return nil
}

// ListLogs returns the newest entries first, capped at limit (0 means a
// default page of 100).
func (db *DB) ListLogs(limit int) ([]*Log, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM logs ORDER BY id DESC LIMIT ?`, logSelectCols)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
