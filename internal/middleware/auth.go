package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Сообщения об ошибках аутентификации
const (
	MsgHeaderRequired = "Authorization header is required"
	MsgInvalidFormat  = "Invalid authorization format. Use: Bearer <token>"
	MsgTokenRequired  = "Token is required"
	MsgInvalidToken   = "Invalid or expired token"
)

// UserIDKey для хранения UserID в контексте
type UserIDKey struct{}

// TokenVerifier проверяет подпись и срок действия токена и возвращает UserID
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware пропускает только запросы с действительным Bearer-токеном.
// Middleware не обращается к хранилищу и доверяет только результату verifier.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, MsgHeaderRequired)
				return
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, MsgInvalidFormat)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			if token == "" {
				writeError(w, http.StatusUnauthorized, MsgTokenRequired)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("Invalid JWT token",
					zap.String("uri", r.RequestURI),
					zap.Error(err))
				writeError(w, http.StatusUnauthorized, MsgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID возвращает контекст с UserID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

// GetUserID извлекает UserID из контекста
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey{}).(string)
	return userID, ok && userID != ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
