package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tempizhere/shortlink/internal/models"
)

var (
	// ErrEmailExists возвращается при нарушении уникальности email
	ErrEmailExists = errors.New("email already exists")
	// ErrCodeExists возвращается при нарушении уникальности короткого кода
	ErrCodeExists = errors.New("short code already exists")
	// ErrOwnerNotFound возвращается, если ссылка ссылается на несуществующего пользователя
	ErrOwnerNotFound = errors.New("owner not found")
)

// UserRepository определяет операции хранилища над пользователями
type UserRepository interface {
	// FindByEmail возвращает пользователя по email и флаг существования
	FindByEmail(ctx context.Context, email string) (models.User, bool, error)
	// CreateUser сохраняет пользователя, присваивая ему ID и отметки времени
	CreateUser(ctx context.Context, user models.User) (models.User, error)
}

// LinkRepository определяет операции хранилища над короткими ссылками
type LinkRepository interface {
	// CreateLink сохраняет ссылку владельца ownerID
	CreateLink(ctx context.Context, shortCode, targetURL, ownerID string) (models.Link, error)
	// FindByShortCode возвращает целевой URL по коду и флаг существования
	FindByShortCode(ctx context.Context, shortCode string) (string, bool, error)
	// FindAllByOwner возвращает все ссылки пользователя в порядке создания
	FindAllByOwner(ctx context.Context, ownerID string) ([]models.Link, error)
	// DeleteByIDAndOwner удаляет ссылку, только если она принадлежит ownerID.
	// Флаг false означает, что ни одна строка не удалена.
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (models.Link, bool, error)
}

// Database определяет интерфейс для работы с базой данных
//
//go:generate mockgen -destination=mock_database.go -package=repository github.com/tempizhere/shortlink/internal/repository Database
type Database interface {
	// PingContext проверяет соединение с базой данных
	PingContext(ctx context.Context) error
	// Close закрывает соединение с базой данных
	Close() error
	// ExecContext выполняет SQL-команду без возврата результатов
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	// QueryContext выполняет SQL-запрос и возвращает результаты
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	// QueryRowContext выполняет SQL-запрос и возвращает одну строку результата
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
