package store

import (
	"database/sql"
	"fmt"
)

type Stock struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	CategoryID int64  `json:"category_id"`
	PinID      int64  `json:"pin_id"`
}

// StockDetail is a stock row joined with its category and pin names.
type StockDetail struct {
	Stock
	CategoryName string `json:"category_name"`
	PinName      string `json:"pin_name"`
	PinCoords    string `json:"pin_coords"`
}

const stockSelectCols = `id, name, quantity, category_id, pin_id`

func scanStock(row interface{ Scan(...any) error }) (*Stock, error) {
	var s Stock
	var categoryID, pinID sql.NullInt64
	if err := row.Scan(&s.ID, &s.Name, &s.Quantity, &categoryID, &pinID); err != nil {
		return nil, err
	}
	s.CategoryID = categoryID.Int64
	s.PinID = pinID.Int64
	return &s, nil
}

func scanStocks(rows *sql.Rows) ([]*Stock, error) {
	var stocks []*Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

func (db *DB) CreateStock(s *Stock) error {
	id, err := db.insertID(db.Q(`INSERT INTO stocks (name, quantity, category_id, pin_id) VALUES (?, ?, ?, ?)`),
		s.Name, s.Quantity, nullID(s.CategoryID), nullID(s.PinID))
	if err != nil {
		return fmt.Errorf("create stock: %w", err)
	}
	s.ID = id
	return nil
}

func (db *DB) UpdateStock(s *Stock) error {
	_, err := db.Exec(db.Q(`UPDATE stocks SET name=?, quantity=?, category_id=?, pin_id=? WHERE id=?`),
		s.Name, s.Quantity, nullID(s.CategoryID), nullID(s.PinID), s.ID)
	return err
}

func (db *DB) DeleteStock(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM stocks WHERE id=?`), id)
	return err
}

func (db *DB) GetStock(id int64) (*Stock, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM stocks WHERE id=?`, stockSelectCols)), id)
	return scanStock(row)
}

// GetStockDetail joins the category and pin so the job workflow can name
// both in one lookup.
func (db *DB) GetStockDetail(id int64) (*StockDetail, error) {
	row := db.QueryRow(db.Q(`
		SELECT s.id, s.name, s.quantity, s.category_id, s.pin_id,
		       COALESCE(c.name, ''), COALESCE(p.name, ''), COALESCE(p.coords, '')
		FROM stocks s
		LEFT JOIN categories c ON c.id = s.category_id
		LEFT JOIN pins p ON p.id = s.pin_id
		WHERE s.id=?`), id)

	var d StockDetail
	var categoryID, pinID sql.NullInt64
	err := row.Scan(&d.ID, &d.Name, &d.Quantity, &categoryID, &pinID,
		&d.CategoryName, &d.PinName, &d.PinCoords)
	if err != nil {
		return nil, err
	}
	d.CategoryID = categoryID.Int64
	d.PinID = pinID.Int64
	return &d, nil
}

func (db *DB) SetStockQuantity(id int64, quantity int) error {
	_, err := db.Exec(db.Q(`UPDATE stocks SET quantity=? WHERE id=?`), quantity, id)
	return err
}

func (db *DB) ListStocks() ([]*Stock, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM stocks ORDER BY name`, stockSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStocks(rows)
}

// nullID maps a zero id to SQL NULL so unset references stay unset.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
