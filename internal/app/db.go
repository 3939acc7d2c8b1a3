package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// postgresSchema создаёт таблицы пользователей и ссылок. Имена ограничений
// используются хранилищем для распознавания нарушений уникальности.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	firstname  VARCHAR(55)  NOT NULL,
	lastname   VARCHAR(55)  NOT NULL,
	email      VARCHAR(255) NOT NULL,
	password   TEXT NOT NULL,
	salt       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS urls (
	id         UUID PRIMARY KEY,
	code       VARCHAR(155) NOT NULL,
	target_url TEXT NOT NULL,
	user_id    UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT urls_code_key UNIQUE (code),
	CONSTRAINT urls_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id)
);

CREATE INDEX IF NOT EXISTS idx_urls_user_id ON urls (user_id);
`

// NewDB подключается к PostgreSQL через pgx и создаёт схему
func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := conn.ExecContext(ctx, postgresSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}

	return conn, nil
}
