package models

import "time"

// User описывает учётную запись. Пароль хранится только в виде хеша и соли.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstname"`
	LastName     string    `json:"lastname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser содержит проекцию пользователя, которую можно отдавать клиенту
type PublicUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

// Public убирает из пользователя хеш и соль
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// Link описывает короткую ссылку, принадлежащую пользователю
type Link struct {
	ID        string    `json:"id"`
	ShortCode string    `json:"shortCode"`
	TargetURL string    `json:"targetUrl"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SignupRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
	Token   string     `json:"token"`
}

type ShortenRequest struct {
	URL  string `json:"url"`
	Code string `json:"code,omitempty"`
}

type ShortenResponse struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	ShortCode string `json:"shortCode"`
	TargetURL string `json:"targetUrl"`
}

type LinksResponse struct {
	Message string `json:"message"`
	URLs    []Link `json:"urls"`
}

// MessageResponse описывает тело ответа, состоящее из одного сообщения
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse содержит ошибки по каждому полю запроса
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}
