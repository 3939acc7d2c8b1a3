package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tempizhere/shortlink/internal/models"
)

// MemoryRepository реализует UserRepository и LinkRepository в памяти процесса
type MemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]models.User // id -> user
	byEmail map[string]string      // email -> id
	links   []models.Link          // в порядке вставки
	byCode  map[string]int         // code -> индекс в links
	now     func() time.Time
}

// NewMemoryRepository создаёт новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		byCode:  make(map[string]int),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FindByEmail возвращает пользователя по email
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (models.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return models.User{}, false, nil
	}
	return r.users[id], true, nil
}

// CreateUser сохраняет пользователя; email должен быть уникален
func (r *MemoryRepository) CreateUser(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return models.User{}, ErrEmailExists
	}
	now := r.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user, nil
}

// CreateLink сохраняет ссылку; код должен быть уникален, владелец должен существовать
func (r *MemoryRepository) CreateLink(_ context.Context, shortCode, targetURL, ownerID string) (models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[shortCode]; exists {
		return models.Link{}, ErrCodeExists
	}
	if _, exists := r.users[ownerID]; !exists {
		return models.Link{}, ErrOwnerNotFound
	}
	now := r.now()
	link := models.Link{
		ID:        uuid.NewString(),
		ShortCode: shortCode,
		TargetURL: targetURL,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.links = append(r.links, link)
	r.byCode[shortCode] = len(r.links) - 1
	return link, nil
}

// FindByShortCode возвращает целевой URL по коду
func (r *MemoryRepository) FindByShortCode(_ context.Context, shortCode string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byCode[shortCode]
	if !ok {
		return "", false, nil
	}
	return r.links[idx].TargetURL, true, nil
}

// FindAllByOwner возвращает ссылки пользователя в порядке вставки
func (r *MemoryRepository) FindAllByOwner(_ context.Context, ownerID string) ([]models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]models.Link, 0)
	for _, l := range r.links {
		if l.UserID == ownerID {
			links = append(links, l)
		}
	}
	return links, nil
}

// DeleteByIDAndOwner удаляет ссылку владельца
func (r *MemoryRepository) DeleteByIDAndOwner(_ context.Context, id, ownerID string) (models.Link, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.links {
		if l.ID != id || l.UserID != ownerID {
			continue
		}
		r.links = append(r.links[:i], r.links[i+1:]...)
		delete(r.byCode, l.ShortCode)
		for j := i; j < len(r.links); j++ {
			r.byCode[r.links[j].ShortCode] = j
		}
		return l, true, nil
	}
	return models.Link{}, false, nil
}

// Clear очищает хранилище
func (r *MemoryRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[string]models.User)
	r.byEmail = make(map[string]string)
	r.links = nil
	r.byCode = make(map[string]int)
}
