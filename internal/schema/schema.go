// Package schema owns the versioned DDL for the three pipeline schemas.
// Schema creation is an explicit step (the init command), decoupled from
// the transformation stages; stages assume the tables already exist.
package schema

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Version identifies the schema layout. Recorded in the metadata table at
// init time; bump on any DDL change.
const Version = "1"

const createSchemaSQL = `
CREATE SCHEMA IF NOT EXISTS staging;
CREATE SCHEMA IF NOT EXISTS production;
CREATE SCHEMA IF NOT EXISTS warehouse;

-- Staging: verbatim landing zone. Every data column is TEXT and nullable
-- so that malformed input survives one-to-one.
CREATE TABLE IF NOT EXISTS staging.customers (
    customer_id       TEXT,
    first_name        TEXT,
    last_name         TEXT,
    email             TEXT,
    phone             TEXT,
    registration_date TEXT,
    city              TEXT,
    state             TEXT,
    country           TEXT,
    age_group         TEXT,
    loaded_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staging.products (
    product_id     TEXT,
    product_name   TEXT,
    category       TEXT,
    sub_category   TEXT,
    price          TEXT,
    cost           TEXT,
    brand          TEXT,
    stock_quantity TEXT,
    supplier_id    TEXT,
    loaded_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staging.transactions (
    transaction_id   TEXT,
    customer_id      TEXT,
    transaction_date TEXT,
    transaction_time TEXT,
    payment_method   TEXT,
    shipping_address TEXT,
    total_amount     TEXT,
    loaded_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staging.transaction_items (
    item_id             TEXT,
    transaction_id      TEXT,
    product_id          TEXT,
    quantity            TEXT,
    unit_price          TEXT,
    discount_percentage TEXT,
    line_total          TEXT,
    loaded_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Production: normalized (3NF), validated, surrogate-keyed.
CREATE TABLE IF NOT EXISTS production.customers (
    customer_key      BIGINT PRIMARY KEY,
    customer_id       TEXT NOT NULL UNIQUE,
    first_name        TEXT NOT NULL,
    last_name         TEXT NOT NULL,
    email             TEXT NOT NULL,
    phone             TEXT,
    registration_date DATE NOT NULL,
    city              TEXT,
    state             TEXT,
    country           TEXT,
    age_group         TEXT
);

CREATE TABLE IF NOT EXISTS production.products (
    product_key    BIGINT PRIMARY KEY,
    product_id     TEXT NOT NULL UNIQUE,
    product_name   TEXT NOT NULL,
    category       TEXT,
    sub_category   TEXT,
    price          NUMERIC(10,2) NOT NULL,
    cost           NUMERIC(10,2) NOT NULL,
    brand          TEXT,
    stock_quantity INTEGER NOT NULL DEFAULT 0,
    supplier_id    TEXT,
    profit_margin  NUMERIC(6,2) NOT NULL,
    price_category TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS production.transactions (
    transaction_key  BIGINT PRIMARY KEY,
    transaction_id   TEXT NOT NULL UNIQUE,
    customer_key     BIGINT NOT NULL REFERENCES production.customers(customer_key),
    transaction_date DATE NOT NULL,
    transaction_time TEXT,
    payment_method   TEXT NOT NULL,
    shipping_address TEXT,
    total_amount     NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS production.transaction_items (
    item_key            BIGINT PRIMARY KEY,
    item_id             TEXT NOT NULL UNIQUE,
    transaction_key     BIGINT NOT NULL REFERENCES production.transactions(transaction_key),
    product_key         BIGINT NOT NULL REFERENCES production.products(product_key),
    quantity            INTEGER NOT NULL,
    unit_price          NUMERIC(10,2) NOT NULL,
    discount_percentage NUMERIC(5,2) NOT NULL DEFAULT 0,
    line_total          NUMERIC(12,2) NOT NULL
);

-- Warehouse: dimensional star model. Fact/dimension integrity is enforced
-- by the builder, not by engine constraints, because dimensions and facts
-- are loaded in separate steps.
CREATE TABLE IF NOT EXISTS warehouse.dim_customer (
    customer_key BIGINT PRIMARY KEY,
    customer_id  TEXT NOT NULL,
    full_name    TEXT NOT NULL,
    email        TEXT NOT NULL,
    city         TEXT,
    state        TEXT,
    country      TEXT,
    age_group    TEXT
);

CREATE TABLE IF NOT EXISTS warehouse.dim_product (
    product_key    BIGINT PRIMARY KEY,
    product_id     TEXT NOT NULL,
    product_name   TEXT NOT NULL,
    category       TEXT,
    sub_category   TEXT,
    brand          TEXT,
    price          NUMERIC(10,2) NOT NULL,
    price_category TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.dim_date (
    date_key    INTEGER PRIMARY KEY,
    date        DATE NOT NULL,
    year        INTEGER NOT NULL,
    quarter     INTEGER NOT NULL,
    month       INTEGER NOT NULL,
    month_name  TEXT NOT NULL,
    day         INTEGER NOT NULL,
    day_of_week INTEGER NOT NULL,
    day_name    TEXT NOT NULL,
    is_weekend  BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.dim_payment_method (
    payment_method_key BIGINT PRIMARY KEY,
    payment_method     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS warehouse.fact_sales (
    sales_key           BIGINT PRIMARY KEY,
    transaction_id      TEXT NOT NULL,
    customer_key        BIGINT NOT NULL,
    product_key         BIGINT NOT NULL,
    date_key            INTEGER NOT NULL,
    payment_method_key  BIGINT NOT NULL,
    quantity            INTEGER NOT NULL,
    unit_price          NUMERIC(10,2) NOT NULL,
    discount_percentage NUMERIC(5,2) NOT NULL,
    extended_amount     NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.agg_daily_sales (
    date_key              INTEGER PRIMARY KEY,
    total_revenue         NUMERIC(14,2) NOT NULL,
    total_quantity        INTEGER NOT NULL,
    transaction_count     INTEGER NOT NULL,
    avg_transaction_value NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.agg_product_performance (
    product_key    BIGINT PRIMARY KEY,
    product_id     TEXT NOT NULL,
    product_name   TEXT NOT NULL,
    category       TEXT,
    total_revenue  NUMERIC(14,2) NOT NULL,
    total_quantity INTEGER NOT NULL,
    order_count    INTEGER NOT NULL,
    revenue_rank   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.agg_customer_metrics (
    customer_key          BIGINT PRIMARY KEY,
    customer_id           TEXT NOT NULL,
    total_spend           NUMERIC(14,2) NOT NULL,
    order_count           INTEGER NOT NULL,
    avg_order_value       NUMERIC(12,2) NOT NULL,
    last_order_date       DATE NOT NULL,
    days_since_last_order INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON warehouse.fact_sales(customer_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON warehouse.fact_sales(product_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON warehouse.fact_sales(date_key);
`

const dropSchemaSQL = `
DROP SCHEMA IF EXISTS warehouse CASCADE;
DROP SCHEMA IF EXISTS production CASCADE;
DROP SCHEMA IF EXISTS staging CASCADE;
`

// Create creates the staging, production and warehouse schemas.
func Create(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// Drop drops all three schemas and their contents.
func Drop(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
