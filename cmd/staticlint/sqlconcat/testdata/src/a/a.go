package a

import (
	"context"
	"database/sql"
	"fmt"
)

const table = "urls"

func queries(ctx context.Context, db *sql.DB, code string) {
	db.Exec("DELETE FROM urls WHERE code = $1", code)
	db.Exec("SELECT id FROM " + table)
	db.QueryRowContext(ctx, "SELECT target_url FROM urls WHERE code = $1", code)

	db.Exec("DELETE FROM urls WHERE code = '" + code + "'")                        // want `SQL-запрос собран конкатенацией строк`
	db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM urls WHERE code = '%s'", code)) // want `SQL-запрос собран через fmt.Sprintf`
	db.QueryRow(("SELECT * FROM " + code))                                           // want `SQL-запрос собран конкатенацией строк`

	tx, _ := db.BeginTx(ctx, nil)
	tx.ExecContext(ctx, "UPDATE urls SET code = '"+code+"'") // want `SQL-запрос собран конкатенацией строк`
	tx.Prepare(fmt.Sprint("SELECT ", code))
}

type logger struct{}

func (logger) Exec(msg string) {}

func notSQL(l logger, code string) {
	// Анализатор не различает назначение метода с подходящим именем
	l.Exec("run " + code) // want `SQL-запрос собран конкатенацией строк`
	fmt.Sprintf("%s", code)
}
