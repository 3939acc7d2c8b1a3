package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tempizhere/shortlink/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	firstname  VARCHAR(55)  NOT NULL,
	lastname   VARCHAR(55)  NOT NULL,
	email      VARCHAR(255) NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	salt       TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS urls (
	id         TEXT PRIMARY KEY,
	code       VARCHAR(155) NOT NULL UNIQUE,
	target_url TEXT NOT NULL,
	user_id    TEXT NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_urls_user_id ON urls(user_id);
`

// SQLiteRepository реализует UserRepository и LinkRepository во встроенной базе SQLite
type SQLiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteRepository открывает (или создаёт) базу по пути path и применяет схему.
// Путь ":memory:" создаёт базу в памяти.
func NewSQLiteRepository(path string, logger *zap.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite допускает одного писателя; одно соединение также сохраняет базу ":memory:"
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// DB возвращает соединение для проверки доступности
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// Close закрывает базу
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// FindByEmail возвращает пользователя по email
func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (models.User, bool, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, firstname, lastname, email, password, salt, created_at, updated_at FROM users WHERE email = ?",
		email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Salt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user from sqlite", zap.String("email", email), zap.Error(err))
		return models.User{}, false, fmt.Errorf("find user by email: %w", err)
	}
	return u, true, nil
}

// CreateUser сохраняет пользователя
func (r *SQLiteRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := r.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, firstname, lastname, email, password, salt, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Salt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "users.email") {
			return models.User{}, ErrEmailExists
		}
		r.logger.Error("Failed to save user to sqlite", zap.String("email", user.Email), zap.Error(err))
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// CreateLink сохраняет короткую ссылку
func (r *SQLiteRepository) CreateLink(ctx context.Context, shortCode, targetURL, ownerID string) (models.Link, error) {
	now := r.now()
	link := models.Link{
		ID:        uuid.NewString(),
		ShortCode: shortCode,
		TargetURL: targetURL,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO urls (id, code, target_url, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		link.ID, link.ShortCode, link.TargetURL, link.UserID, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		if sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "urls.code") {
			return models.Link{}, ErrCodeExists
		}
		if sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY") {
			return models.Link{}, ErrOwnerNotFound
		}
		r.logger.Error("Failed to save URL to sqlite", zap.String("code", shortCode), zap.Error(err))
		return models.Link{}, fmt.Errorf("insert link: %w", err)
	}
	return link, nil
}

// FindByShortCode возвращает целевой URL по коду
func (r *SQLiteRepository) FindByShortCode(ctx context.Context, shortCode string) (string, bool, error) {
	var target string
	err := r.db.QueryRowContext(ctx, "SELECT target_url FROM urls WHERE code = ?", shortCode).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get URL from sqlite", zap.String("code", shortCode), zap.Error(err))
		return "", false, fmt.Errorf("find link by code: %w", err)
	}
	return target, true, nil
}

// FindAllByOwner возвращает ссылки пользователя в порядке вставки
func (r *SQLiteRepository) FindAllByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, target_url, user_id, created_at, updated_at FROM urls WHERE user_id = ? ORDER BY rowid",
		ownerID,
	)
	if err != nil {
		r.logger.Error("Failed to list user URLs", zap.String("user_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := make([]models.Link, 0)
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.ID, &l.ShortCode, &l.TargetURL, &l.UserID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// DeleteByIDAndOwner удаляет ссылку владельца. Строка читается и удаляется в одной транзакции.
func (r *SQLiteRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (models.Link, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Link{}, false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var l models.Link
	err = tx.QueryRowContext(ctx,
		"SELECT id, code, target_url, user_id, created_at, updated_at FROM urls WHERE id = ? AND user_id = ?",
		id, ownerID,
	).Scan(&l.ID, &l.ShortCode, &l.TargetURL, &l.UserID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Link{}, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to read URL before delete", zap.String("id", id), zap.Error(err))
		return models.Link{}, false, fmt.Errorf("find link: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM urls WHERE id = ? AND user_id = ?", id, ownerID); err != nil {
		r.logger.Error("Failed to delete URL", zap.String("id", id), zap.Error(err))
		return models.Link{}, false, fmt.Errorf("delete link: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Link{}, false, fmt.Errorf("commit delete: %w", err)
	}
	return l, true, nil
}

// sqliteConstraint сообщает, что err является нарушением ограничения с расширенным кодом code,
// в тексте которого упоминается needle (столбец или вид ограничения)
func sqliteConstraint(err error, code int, needle string) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if c := sqliteErr.Code(); c != code && c != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(sqliteErr.Error(), needle)
}
