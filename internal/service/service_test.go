package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/models"
	"github.com/tempizhere/shortlink/internal/password"
	"github.com/tempizhere/shortlink/internal/repository"
)

// failingRepository возвращает заданную ошибку на каждую операцию
type failingRepository struct {
	err error
}

func (f *failingRepository) FindByEmail(context.Context, string) (models.User, bool, error) {
	return models.User{}, false, f.err
}

func (f *failingRepository) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, f.err
}

func (f *failingRepository) CreateLink(context.Context, string, string, string) (models.Link, error) {
	return models.Link{}, f.err
}

func (f *failingRepository) FindByShortCode(context.Context, string) (string, bool, error) {
	return "", false, f.err
}

func (f *failingRepository) FindAllByOwner(context.Context, string) ([]models.Link, error) {
	return nil, f.err
}

func (f *failingRepository) DeleteByIDAndOwner(context.Context, string, string) (models.Link, bool, error) {
	return models.Link{}, false, f.err
}

// sequence возвращает коды по очереди
func sequence(codes ...string) CodeGenerator {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func newOwner(t *testing.T, repo *repository.MemoryRepository) string {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), models.User{
		FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", PasswordHash: "h", Salt: "s",
	})
	require.NoError(t, err)
	return user.ID
}

func TestGenerateShortCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := GenerateShortCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, c), "символ %q вне алфавита", c)
		}
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 190, "коды должны быть случайными")
}

func TestCodeAlphabet_Unambiguous(t *testing.T) {
	for _, c := range "01lIO" {
		assert.False(t, strings.ContainsRune(CodeAlphabet, c), "символ %q похож на другой", c)
	}
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewUserService(repo, zap.NewNop())

	user, err := svc.Register(ctx, "Jane", "Doe", "jane@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "jane@x.com", user.Email)

	stored, found, err := repo.FindByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, stored.Salt, 2*password.SaltSize)
	assert.Equal(t, password.GenerateHash("secret1", stored.Salt), stored.PasswordHash)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	_, err = svc.Register(ctx, "John", "Doe", "jane@x.com", "other12")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	again, _, _ := repo.FindByEmail(ctx, "jane@x.com")
	assert.Equal(t, stored.ID, again.ID, "второй пользователь не должен появиться")
}

// raceRepository имитирует параллельную регистрацию: проверка email проходит,
// а вставка натыкается на ограничение уникальности
type raceRepository struct {
	failingRepository
}

func (r *raceRepository) FindByEmail(context.Context, string) (models.User, bool, error) {
	return models.User{}, false, nil
}

func (r *raceRepository) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, repository.ErrEmailExists
}

func TestUserService_Register_ConstraintViolation(t *testing.T) {
	svc := NewUserService(&raceRepository{}, zap.NewNop())

	_, err := svc.Register(context.Background(), "Jane", "Doe", "jane@x.com", "secret1")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserService_Register_StorageError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewUserService(&failingRepository{err: boom}, zap.NewNop())

	_, err := svc.Register(context.Background(), "Jane", "Doe", "jane@x.com", "secret1")
	assert.ErrorIs(t, err, boom)
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewUserService(repo, zap.NewNop())

	registered, err := svc.Register(ctx, "Jane", "Doe", "jane@x.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "jane@x.com", password: "secret1"},
		{name: "wrong password", email: "jane@x.com", password: "secret2", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@x.com", password: "secret1", wantErr: ErrUserNotFound},
		{name: "empty password", email: "jane@x.com", password: "", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)
			assert.NotEmpty(t, user.Salt)
			assert.NotEmpty(t, user.PasswordHash)
		})
	}
}

func TestLinkService_Shorten(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	owner := newOwner(t, repo)
	svc := NewLinkService(repo, zap.NewNop())

	t.Run("custom code", func(t *testing.T) {
		link, err := svc.Shorten(ctx, owner, "https://example.com", "abc123")
		require.NoError(t, err)
		assert.Equal(t, "abc123", link.ShortCode)
		assert.Equal(t, "https://example.com", link.TargetURL)
		assert.NotEmpty(t, link.ID)
	})

	t.Run("duplicate custom code", func(t *testing.T) {
		_, err := svc.Shorten(ctx, owner, "https://other.example.com", "abc123")
		assert.ErrorIs(t, err, ErrDuplicateCode)
	})

	t.Run("generated code resolves immediately", func(t *testing.T) {
		link, err := svc.Shorten(ctx, owner, "https://go.dev", "")
		require.NoError(t, err)
		assert.Len(t, link.ShortCode, CodeLength)

		target, found, err := svc.Resolve(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "https://go.dev", target)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := svc.Shorten(ctx, owner, "  ", "")
		assert.ErrorIs(t, err, ErrEmptyURL)
	})
}

func TestLinkService_Shorten_CollisionRetry(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	owner := newOwner(t, repo)
	_, err := repo.CreateLink(ctx, "taken00", "https://example.com", owner)
	require.NoError(t, err)

	t.Run("second attempt succeeds", func(t *testing.T) {
		svc := NewLinkService(repo, zap.NewNop()).WithGenerator(sequence("taken00", "fresh00"))
		link, err := svc.Shorten(ctx, owner, "https://go.dev", "")
		require.NoError(t, err)
		assert.Equal(t, "fresh00", link.ShortCode)
	})

	t.Run("retried only once", func(t *testing.T) {
		calls := 0
		svc := NewLinkService(repo, zap.NewNop()).WithGenerator(func() (string, error) {
			calls++
			return "taken00", nil
		})
		_, err := svc.Shorten(ctx, owner, "https://go.dev", "")
		assert.ErrorIs(t, err, ErrUniqueIDFailed)
		assert.Equal(t, 2, calls)
	})

	t.Run("generator error", func(t *testing.T) {
		boom := errors.New("entropy exhausted")
		svc := NewLinkService(repo, zap.NewNop()).WithGenerator(func() (string, error) {
			return "", boom
		})
		_, err := svc.Shorten(ctx, owner, "https://go.dev", "")
		assert.ErrorIs(t, err, boom)
	})
}

func TestLinkService_Shorten_StorageError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewLinkService(&failingRepository{err: boom}, zap.NewNop())

	_, err := svc.Shorten(context.Background(), "owner", "https://example.com", "")
	assert.ErrorIs(t, err, boom, "ошибка хранилища не повторяется")

	_, err = svc.Shorten(context.Background(), "owner", "https://example.com", "abc123")
	assert.ErrorIs(t, err, boom)
}

func TestLinkService_ListMine(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	owner := newOwner(t, repo)
	svc := NewLinkService(repo, zap.NewNop())

	links, err := svc.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)

	_, err = svc.Shorten(ctx, owner, "https://example.com", "first")
	require.NoError(t, err)
	_, err = svc.Shorten(ctx, owner, "https://go.dev", "second")
	require.NoError(t, err)

	links, err = svc.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "first", links[0].ShortCode)
	assert.Equal(t, "second", links[1].ShortCode)

	_, err = NewLinkService(&failingRepository{err: errors.New("down")}, zap.NewNop()).ListMine(ctx, owner)
	assert.Error(t, err)
}

func TestLinkService_Remove(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	owner := newOwner(t, repo)
	stranger, err := repo.CreateUser(ctx, models.User{
		FirstName: "Eve", LastName: "Doe", Email: "eve@x.com", PasswordHash: "h", Salt: "s",
	})
	require.NoError(t, err)
	svc := NewLinkService(repo, zap.NewNop())

	link, err := svc.Shorten(ctx, owner, "https://example.com", "abc123")
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, stranger.ID, link.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	_, found, _ := svc.Resolve(ctx, "abc123")
	assert.True(t, found, "чужая ссылка остаётся")

	removed, err = svc.Remove(ctx, owner, link.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err = svc.Resolve(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, found)
}
