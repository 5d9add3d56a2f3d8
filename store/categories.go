package store

import "fmt"

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func scanCategory(row interface{ Scan(...any) error }) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) CreateCategory(c *Category) error {
	id, err := db.insertID(db.Q(`INSERT INTO categories (name) VALUES (?)`), c.Name)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	return nil
}

func (db *DB) UpdateCategory(c *Category) error {
	_, err := db.Exec(db.Q(`UPDATE categories SET name=? WHERE id=?`), c.Name, c.ID)
	return err
}

func (db *DB) DeleteCategory(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM categories WHERE id=?`), id)
	return err
}

func (db *DB) GetCategory(id int64) (*Category, error) {
	row := db.QueryRow(db.Q(`SELECT id, name FROM categories WHERE id=?`), id)
	return scanCategory(row)
}

func (db *DB) ListCategories() ([]*Category, error) {
	rows, err := db.Query(`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
