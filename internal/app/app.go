// Package app содержит HTTP-обработчики и маршрутизацию REST API.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/metrics"
	"github.com/tempizhere/shortlink/internal/middleware"
	"github.com/tempizhere/shortlink/internal/models"
	"github.com/tempizhere/shortlink/internal/repository"
	"github.com/tempizhere/shortlink/internal/service"
	"github.com/tempizhere/shortlink/internal/token"
	"github.com/tempizhere/shortlink/internal/validation"
)

// maxBodySize ограничивает размер тела JSON-запроса
const maxBodySize = 1 << 20

// Сообщения ответов
const (
	msgUserCreated     = "User created successfully"
	msgLoggedIn        = "Login successful"
	msgShortened       = "URL shortened successfully"
	msgFetched         = "URLs fetched successfully"
	msgDeleted         = "URL deleted successfully"
	msgNotFound        = "URL not found"
	msgInvalidJSON     = "Invalid JSON"
	msgValidation      = "Validation failed"
	msgBadCredentials  = "Invalid email or password"
	msgCodeExists      = "Short code already exists"
	msgIDRequired      = "ID is required"
	msgCodeRequired    = "Shortcode is required"
	msgInternal        = "Internal server error"
	msgCreateUserError = "Failed to create user"
	msgShortenError    = "Failed to create shortened URL"
)

// App содержит хендлеры и зависимости
type App struct {
	users   *service.UserService
	links   *service.LinkService
	issuer  *token.Issuer
	db      repository.Database
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewApp создаёт новое приложение. db может быть nil, если сервис работает без внешней базы.
func NewApp(users *service.UserService, links *service.LinkService, issuer *token.Issuer,
	db repository.Database, m *metrics.Metrics, logger *zap.Logger) *App {
	return &App{
		users:   users,
		links:   links,
		issuer:  issuer,
		db:      db,
		metrics: m,
		logger:  logger,
	}
}

// HandleSignup обрабатывает POST-запросы на "/user/signup"
func (a *App) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Signup(req); err != nil {
		a.signupOutcome("invalid")
		a.writeValidationError(w, err)
		return
	}

	user, err := a.users.Register(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			a.signupOutcome("duplicate")
			a.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("User with email %s already exists", req.Email))
			return
		}
		a.signupOutcome("error")
		a.logger.Error("Failed to register user", zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, msgCreateUserError)
		return
	}

	tok, err := a.issuer.Issue(user.ID)
	if err != nil {
		a.signupOutcome("error")
		a.logger.Error("Failed to issue token", zap.String("user_id", user.ID), zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	a.signupOutcome("success")
	a.writeJSONResponse(w, http.StatusCreated, models.AuthResponse{
		Message: msgUserCreated,
		User:    user,
		Token:   tok,
	})
}

// HandleLogin обрабатывает POST-запросы на "/user/login"
func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Login(req); err != nil {
		a.loginOutcome("invalid")
		a.writeValidationError(w, err)
		return
	}

	user, err := a.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			a.loginOutcome("rejected")
			a.writeMessage(w, http.StatusBadRequest, msgBadCredentials)
			return
		}
		a.loginOutcome("error")
		a.logger.Error("Failed to authenticate user", zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	tok, err := a.issuer.Issue(user.ID)
	if err != nil {
		a.loginOutcome("error")
		a.logger.Error("Failed to issue token", zap.String("user_id", user.ID), zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	a.loginOutcome("success")
	a.writeJSONResponse(w, http.StatusOK, models.AuthResponse{
		Message: msgLoggedIn,
		User:    user.Public(),
		Token:   tok,
	})
}

// HandleShorten обрабатывает POST-запросы на "/shorten"
func (a *App) HandleShorten(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		a.writeMessage(w, http.StatusUnauthorized, middleware.MsgInvalidToken)
		return
	}

	var req models.ShortenRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Shorten(req); err != nil {
		a.shortenOutcome("invalid")
		a.writeValidationError(w, err)
		return
	}

	link, err := a.links.Shorten(r.Context(), userID, req.URL, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateCode):
			a.shortenOutcome("duplicate")
			a.writeMessage(w, http.StatusConflict, msgCodeExists)
		case errors.Is(err, repository.ErrOwnerNotFound):
			// Токен подписан, но пользователя уже нет
			a.shortenOutcome("invalid")
			a.writeMessage(w, http.StatusUnauthorized, middleware.MsgInvalidToken)
		default:
			a.shortenOutcome("error")
			a.logger.Error("Failed to shorten URL", zap.String("user_id", userID), zap.Error(err))
			a.writeMessage(w, http.StatusInternalServerError, msgShortenError)
		}
		return
	}

	a.shortenOutcome("success")
	a.writeJSONResponse(w, http.StatusCreated, models.ShortenResponse{
		Message:   msgShortened,
		ID:        link.ID,
		ShortCode: link.ShortCode,
		TargetURL: link.TargetURL,
	})
}

// HandleListCodes обрабатывает GET-запросы на "/codes"
func (a *App) HandleListCodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		a.writeMessage(w, http.StatusUnauthorized, middleware.MsgInvalidToken)
		return
	}

	links, err := a.links.ListMine(r.Context(), userID)
	if err != nil {
		a.logger.Error("Failed to list URLs", zap.String("user_id", userID), zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	a.writeJSONResponse(w, http.StatusOK, models.LinksResponse{
		Message: msgFetched,
		URLs:    links,
	})
}

// HandleDelete обрабатывает DELETE-запросы на "/{id}"
func (a *App) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		a.writeMessage(w, http.StatusUnauthorized, middleware.MsgInvalidToken)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		a.writeMessage(w, http.StatusBadRequest, msgIDRequired)
		return
	}
	// Идентификаторы ссылок являются UUID, остальное заведомо не найдётся.
	// Хранилища сравнивают каноническую форму, поэтому регистр и обёртки {..}, urn:uuid: снимаются.
	parsed, err := uuid.Parse(id)
	if err != nil {
		a.writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}
	id = parsed.String()

	removed, err := a.links.Remove(r.Context(), userID, id)
	if err != nil {
		a.logger.Error("Failed to delete URL", zap.String("id", id), zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if !removed {
		a.writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	a.writeMessage(w, http.StatusOK, msgDeleted)
}

// HandleRedirect обрабатывает GET-запросы на "/{id}", где id это короткий код
func (a *App) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "id")
	if code == "" {
		a.writeMessage(w, http.StatusBadRequest, msgCodeRequired)
		return
	}

	target, found, err := a.links.Resolve(r.Context(), code)
	if err != nil {
		a.redirectOutcome("error")
		a.logger.Error("Failed to resolve short code", zap.String("code", code), zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if !found {
		a.redirectOutcome("not_found")
		a.writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	a.redirectOutcome("found")
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleMissingID отвечает на DELETE без идентификатора
func (a *App) HandleMissingID(w http.ResponseWriter, r *http.Request) {
	a.writeMessage(w, http.StatusBadRequest, msgIDRequired)
}

// HandleMissingCode отвечает на GET без короткого кода
func (a *App) HandleMissingCode(w http.ResponseWriter, r *http.Request) {
	a.writeMessage(w, http.StatusBadRequest, msgCodeRequired)
}

// HandlePing обрабатывает GET-запросы на "/ping"
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		a.writeMessage(w, http.StatusInternalServerError, "Database not configured")
		return
	}
	if err := a.db.PingContext(r.Context()); err != nil {
		a.logger.Error("Database ping failed", zap.Error(err))
		a.writeMessage(w, http.StatusInternalServerError, "Database connection failed")
		return
	}
	a.writeMessage(w, http.StatusOK, "OK")
}

// decodeJSON читает тело запроса; при ошибке сам пишет ответ 400
func (a *App) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeMessage(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}

func (a *App) writeValidationError(w http.ResponseWriter, err error) {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		a.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	a.writeJSONResponse(w, http.StatusBadRequest, models.ValidationErrorResponse{
		Message: msgValidation,
		Errors:  errs,
	})
}

func (a *App) writeMessage(w http.ResponseWriter, status int, message string) {
	a.writeJSONResponse(w, status, models.MessageResponse{Message: message})
}

// writeJSONResponse пишет JSON-ответ с проверкой ошибок
func (a *App) writeJSONResponse(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("Failed to encode JSON", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		a.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (a *App) signupOutcome(status string) {
	if a.metrics != nil {
		a.metrics.Signups.WithLabelValues(status).Inc()
	}
}

func (a *App) loginOutcome(status string) {
	if a.metrics != nil {
		a.metrics.Logins.WithLabelValues(status).Inc()
	}
}

func (a *App) shortenOutcome(status string) {
	if a.metrics != nil {
		a.metrics.LinksCreated.WithLabelValues(status).Inc()
	}
}

func (a *App) redirectOutcome(status string) {
	if a.metrics != nil {
		a.metrics.Redirects.WithLabelValues(status).Inc()
	}
}
