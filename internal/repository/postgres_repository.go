package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/models"
)

// Имена ограничений уникальности из схемы
const (
	pgUniqueViolation   = "23505"
	usersEmailKey       = "users_email_key"
	urlsCodeKey         = "urls_code_key"
	pgForeignKeyFailure = "23503"
)

// PostgresRepository реализует UserRepository и LinkRepository с использованием PostgreSQL
type PostgresRepository struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresRepository создаёт новый экземпляр PostgresRepository
func NewPostgresRepository(db Database, logger *zap.Logger) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("database is not configured")
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}, nil
}

// FindByEmail возвращает пользователя по email
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (models.User, bool, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, firstname, lastname, email, password, salt, created_at, updated_at FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Salt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user from database", zap.String("email", email), zap.Error(err))
		return models.User{}, false, fmt.Errorf("find user by email: %w", err)
	}
	return u, true, nil
}

// CreateUser сохраняет пользователя
func (r *PostgresRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	user.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (id, firstname, lastname, email, password, salt) VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at",
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Salt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if constraint, ok := pgViolation(err, pgUniqueViolation); ok && constraint == usersEmailKey {
			return models.User{}, ErrEmailExists
		}
		r.logger.Error("Failed to save user to database", zap.String("email", user.Email), zap.Error(err))
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// CreateLink сохраняет короткую ссылку
func (r *PostgresRepository) CreateLink(ctx context.Context, shortCode, targetURL, ownerID string) (models.Link, error) {
	link := models.Link{
		ID:        uuid.NewString(),
		ShortCode: shortCode,
		TargetURL: targetURL,
		UserID:    ownerID,
	}
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO urls (id, code, target_url, user_id) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at",
		link.ID, link.ShortCode, link.TargetURL, link.UserID,
	).Scan(&link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		if constraint, ok := pgViolation(err, pgUniqueViolation); ok && constraint == urlsCodeKey {
			return models.Link{}, ErrCodeExists
		}
		if _, ok := pgViolation(err, pgForeignKeyFailure); ok {
			return models.Link{}, ErrOwnerNotFound
		}
		r.logger.Error("Failed to save URL to database", zap.String("code", shortCode), zap.String("url", targetURL), zap.Error(err))
		return models.Link{}, fmt.Errorf("insert link: %w", err)
	}
	return link, nil
}

// FindByShortCode возвращает целевой URL по коду
func (r *PostgresRepository) FindByShortCode(ctx context.Context, shortCode string) (string, bool, error) {
	var target string
	err := r.db.QueryRowContext(ctx, "SELECT target_url FROM urls WHERE code = $1", shortCode).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get URL from database", zap.String("code", shortCode), zap.Error(err))
		return "", false, fmt.Errorf("find link by code: %w", err)
	}
	return target, true, nil
}

// FindAllByOwner возвращает ссылки пользователя в порядке создания
func (r *PostgresRepository) FindAllByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, target_url, user_id, created_at, updated_at FROM urls WHERE user_id = $1 ORDER BY created_at, id",
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
			r.logger.Error("Failed to scan URL row", zap.Error(err))
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating URL rows", zap.Error(err))
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// DeleteByIDAndOwner удаляет ссылку владельца одним запросом
func (r *PostgresRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (models.Link, bool, error) {
	var l models.Link
	err := r.db.QueryRowContext(ctx,
		"DELETE FROM urls WHERE id = $1 AND user_id = $2 RETURNING id, code, target_url, user_id, created_at, updated_at",
		id, ownerID,
	).Scan(&l.ID, &l.ShortCode, &l.TargetURL, &l.UserID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Link{}, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to delete URL", zap.String("id", id), zap.String("user_id", ownerID), zap.Error(err))
		return models.Link{}, false, fmt.Errorf("delete link: %w", err)
	}
	return l, true, nil
}

// Clear очищает все записи в таблицах
func (r *PostgresRepository) Clear(ctx context.Context) {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE urls, users"); err != nil {
		r.logger.Error("Failed to clear database", zap.Error(err))
	}
}

// pgViolation сообщает, является ли err ошибкой PostgreSQL с кодом code, и возвращает имя ограничения
func pgViolation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}
