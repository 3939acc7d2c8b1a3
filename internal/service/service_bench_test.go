package service

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/models"
	"github.com/tempizhere/shortlink/internal/repository"
)

func newBenchmarkOwner(b *testing.B, repo *repository.MemoryRepository) string {
	b.Helper()
	user, err := repo.CreateUser(context.Background(), models.User{
		FirstName: "Bench", LastName: "User", Email: "bench@x.com", PasswordHash: "h", Salt: "s",
	})
	if err != nil {
		b.Fatal(err)
	}
	return user.ID
}

// Бенчмарки для генерации коротких кодов
func BenchmarkGenerateShortCode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := GenerateShortCode(); err != nil {
			b.Fatal(err)
		}
	}
}

// Бенчмарки для создания ссылок со сгенерированным кодом
func BenchmarkShorten(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	owner := newBenchmarkOwner(b, repo)
	svc := NewLinkService(repo, zap.NewNop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Shorten(ctx, owner, "https://example.com/very/long/url/that/needs/to/be/shortened", ""); err != nil {
			b.Fatal(err)
		}
	}
}

// Бенчмарки для создания ссылок с заданным кодом
func BenchmarkShortenWithCode(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	owner := newBenchmarkOwner(b, repo)
	svc := NewLinkService(repo, zap.NewNop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		code := fmt.Sprintf("bench%d", i)
		if _, err := svc.Shorten(ctx, owner, "https://example.com/very/long/url/that/needs/to/be/shortened", code); err != nil {
			b.Fatal(err)
		}
	}
}

// Бенчмарки для перехода по короткому коду
func BenchmarkResolve(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	owner := newBenchmarkOwner(b, repo)
	svc := NewLinkService(repo, zap.NewNop())

	if _, err := svc.Shorten(ctx, owner, "https://example.com/very/long/url/that/needs/to/be/shortened", "test123"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, found, _ := svc.Resolve(ctx, "test123"); !found {
			b.Fatal("URL not found")
		}
	}
}

// Бенчмарки для входа: основную часть времени занимает HMAC
func BenchmarkAuthenticate(b *testing.B) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryRepository(), zap.NewNop())
	if _, err := svc.Register(ctx, "Bench", "User", "bench@x.com", "secret1"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Authenticate(ctx, "bench@x.com", "secret1"); err != nil {
			b.Fatal(err)
		}
	}
}
