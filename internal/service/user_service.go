package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/models"
	"github.com/tempizhere/shortlink/internal/password"
	"github.com/tempizhere/shortlink/internal/repository"
)

// UserService отвечает за регистрацию и вход пользователей
type UserService struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

// NewUserService создаёт новый экземпляр UserService
func NewUserService(repo repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Register создаёт учётную запись и возвращает её публичное представление
func (s *UserService) Register(ctx context.Context, firstName, lastName, email, plain string) (models.PublicUser, error) {
	_, exists, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return models.PublicUser{}, err
	}
	if exists {
		return models.PublicUser{}, ErrDuplicateEmail
	}

	salt := password.GenerateSalt()
	user, err := s.repo.CreateUser(ctx, models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: password.GenerateHash(plain, salt),
		Salt:         salt,
	})
	if err != nil {
		// Параллельная регистрация с тем же email
		if errors.Is(err, repository.ErrEmailExists) {
			return models.PublicUser{}, ErrDuplicateEmail
		}
		return models.PublicUser{}, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return user.Public(), nil
}

// Authenticate проверяет email и пароль. Возвращённая запись содержит хеш и соль,
// вызывающий код отдаёт клиенту только User.Public().
func (s *UserService) Authenticate(ctx context.Context, email, plain string) (models.User, error) {
	user, found, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, ErrUserNotFound
	}
	if !password.Compare(plain, user.Salt, user.PasswordHash) {
		s.logger.Warn("Invalid password", zap.String("user_id", user.ID))
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}
