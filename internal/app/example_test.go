package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/app"
	"github.com/tempizhere/shortlink/internal/metrics"
	"github.com/tempizhere/shortlink/internal/models"
	"github.com/tempizhere/shortlink/internal/repository"
	"github.com/tempizhere/shortlink/internal/service"
	"github.com/tempizhere/shortlink/internal/token"
)

func newExampleRouter() http.Handler {
	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	a := app.NewApp(
		service.NewUserService(repo, logger),
		service.NewLinkService(repo, logger),
		token.NewIssuer("example-secret", time.Hour),
		nil, metrics.New(), logger,
	)
	return app.NewRouter(a, app.RouterConfig{APIPrefix: "/api/v1"})
}

func post(h http.Handler, path string, body any, tok string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ExampleApp_HandleSignup демонстрирует регистрацию пользователя
func ExampleApp_HandleSignup() {
	router := newExampleRouter()

	w := post(router, "/api/v1/user/signup", models.SignupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Password:  "secret1",
	}, "")

	var resp models.AuthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	fmt.Printf("Статус код: %d\n", w.Code)
	fmt.Printf("Сообщение: %s\n", resp.Message)
	fmt.Printf("Токен выдан: %t\n", resp.Token != "")

	// Output:
	// Статус код: 201
	// Сообщение: User created successfully
	// Токен выдан: true
}

// ExampleApp_HandleShorten демонстрирует сокращение ссылки и переход по ней
func ExampleApp_HandleShorten() {
	router := newExampleRouter()

	w := post(router, "/api/v1/user/signup", models.SignupRequest{
		FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "secret1",
	}, "")
	var auth models.AuthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &auth)

	w = post(router, "/api/v1/shorten", models.ShortenRequest{URL: "https://example.com", Code: "abc123"}, auth.Token)
	var shortened models.ShortenResponse
	_ = json.Unmarshal(w.Body.Bytes(), &shortened)
	fmt.Printf("Статус код: %d\n", w.Code)
	fmt.Printf("Код: %s\n", shortened.ShortCode)

	redirect := httptest.NewRecorder()
	router.ServeHTTP(redirect, httptest.NewRequest(http.MethodGet, "/api/v1/abc123", nil))
	fmt.Printf("Переход: %d %s\n", redirect.Code, redirect.Header().Get("Location"))

	// Output:
	// Статус код: 201
	// Код: abc123
	// Переход: 302 https://example.com
}

// ExampleApp_HandleShorten_unauthorized демонстрирует отказ без токена
func ExampleApp_HandleShorten_unauthorized() {
	router := newExampleRouter()

	w := post(router, "/api/v1/shorten", models.ShortenRequest{URL: "https://example.com"}, "")
	fmt.Printf("Статус код: %d\n", w.Code)
	fmt.Print(w.Body.String())

	// Output:
	// Статус код: 401
	// {"message":"Authorization header is required"}
}
