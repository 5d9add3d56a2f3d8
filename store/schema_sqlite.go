package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS categories (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS pins (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    coords      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS stocks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    quantity    INTEGER NOT NULL DEFAULT 0,
    category_id INTEGER REFERENCES categories(id),
    pin_id      INTEGER REFERENCES pins(id)
);
CREATE INDEX IF NOT EXISTS idx_stocks_category ON stocks(category_id);
CREATE INDEX IF NOT EXISTS idx_stocks_pin ON stocks(pin_id);

CREATE TABLE IF NOT EXISTS robots (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    ip          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS logs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    robot_name    TEXT NOT NULL DEFAULT '',
    robot_ip      TEXT NOT NULL DEFAULT '',
    pin_name      TEXT NOT NULL DEFAULT '',
    pin_coords    TEXT NOT NULL DEFAULT '',
    category_name TEXT NOT NULL DEFAULT '',
    stock_name    TEXT NOT NULL DEFAULT '',
    stock_id      INTEGER,
    quantity      INTEGER NOT NULL DEFAULT 0,
    action        TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_logs_created ON logs(created_at);
`
