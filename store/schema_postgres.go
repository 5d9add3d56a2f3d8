package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS categories (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS pins (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    coords      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS stocks (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    quantity    INTEGER NOT NULL DEFAULT 0,
    category_id BIGINT REFERENCES categories(id),
    pin_id      BIGINT REFERENCES pins(id)
);
CREATE INDEX IF NOT EXISTS idx_stocks_category ON stocks(category_id);
CREATE INDEX IF NOT EXISTS idx_stocks_pin ON stocks(pin_id);

CREATE TABLE IF NOT EXISTS robots (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    ip          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS logs (
    id            BIGSERIAL PRIMARY KEY,
    robot_name    TEXT NOT NULL DEFAULT '',
    robot_ip      TEXT NOT NULL DEFAULT '',
    pin_name      TEXT NOT NULL DEFAULT '',
    pin_coords    TEXT NOT NULL DEFAULT '',
    category_name TEXT NOT NULL DEFAULT '',
    stock_name    TEXT NOT NULL DEFAULT '',
    stock_id      BIGINT,
    quantity      INTEGER NOT NULL DEFAULT 0,
    action        TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_logs_created ON logs(created_at);
`
