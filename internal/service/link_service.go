package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/models"
	"github.com/tempizhere/shortlink/internal/repository"
)

// LinkService реализует логику работы с короткими ссылками
type LinkService struct {
	repo     repository.LinkRepository
	logger   *zap.Logger
	generate CodeGenerator
}

// NewLinkService создаёт новый экземпляр LinkService
func NewLinkService(repo repository.LinkRepository, logger *zap.Logger) *LinkService {
	return &LinkService{
		repo:     repo,
		logger:   logger,
		generate: GenerateShortCode,
	}
}

// WithGenerator заменяет генератор кодов
func (s *LinkService) WithGenerator(gen CodeGenerator) *LinkService {
	s.generate = gen
	return s
}

// Shorten создаёт ссылку владельца ownerID. Пустой code означает, что код
// генерируется; занятый сгенерированный код заменяется новым один раз.
func (s *LinkService) Shorten(ctx context.Context, ownerID, targetURL, code string) (models.Link, error) {
	if strings.TrimSpace(targetURL) == "" {
		return models.Link{}, ErrEmptyURL
	}

	if code != "" {
		link, err := s.repo.CreateLink(ctx, code, targetURL, ownerID)
		if errors.Is(err, repository.ErrCodeExists) {
			return models.Link{}, ErrDuplicateCode
		}
		return link, err
	}

	for attempt := 1; attempt <= codeAttempts; attempt++ {
		generated, err := s.generate()
		if err != nil {
			return models.Link{}, err
		}
		link, err := s.repo.CreateLink(ctx, generated, targetURL, ownerID)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return models.Link{}, err
		}
		s.logger.Warn("Generated short code collision",
			zap.String("code", generated),
			zap.Int("attempt", attempt),
		)
	}
	return models.Link{}, ErrUniqueIDFailed
}

// ListMine возвращает ссылки владельца; отсутствие ссылок не является ошибкой
func (s *LinkService) ListMine(ctx context.Context, ownerID string) ([]models.Link, error) {
	links, err := s.repo.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.Link{}
	}
	return links, nil
}

// Remove удаляет ссылку id, только если она принадлежит ownerID
func (s *LinkService) Remove(ctx context.Context, ownerID, id string) (bool, error) {
	_, deleted, err := s.repo.DeleteByIDAndOwner(ctx, id, ownerID)
	return deleted, err
}

// Resolve возвращает целевой URL по короткому коду
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (string, bool, error) {
	return s.repo.FindByShortCode(ctx, shortCode)
}
