// Package validation проверяет входные данные запросов до вызова сервисов.
// Ошибки собираются по полям, чтобы клиент получил их все за один ответ.
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tempizhere/shortlink/internal/models"
)

// Ограничения полей
const (
	MinNameLength     = 3
	MaxNameLength     = 55
	MaxEmailLength    = 255
	MinPasswordLength = 6
	MaxCodeLength     = 155
)

// Errors содержит ошибки валидации по именам полей
type Errors map[string][]string

// Add добавляет сообщение к полю
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Err возвращает nil, если ошибок нет
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Signup проверяет запрос регистрации
func Signup(req models.SignupRequest) error {
	errs := Errors{}
	checkName(errs, "firstname", "First name", req.FirstName)
	checkName(errs, "lastname", "Last name", req.LastName)
	checkEmail(errs, req.Email)
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		errs.Add("password", fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}
	return errs.Err()
}

// Login проверяет запрос входа
func Login(req models.LoginRequest) error {
	errs := Errors{}
	checkEmail(errs, req.Email)
	if req.Password == "" {
		errs.Add("password", "Password is required")
	}
	return errs.Err()
}

// Shorten проверяет запрос на сокращение ссылки
func Shorten(req models.ShortenRequest) error {
	errs := Errors{}
	if !IsURL(req.URL) {
		errs.Add("url", "Invalid URL")
	}
	if req.Code != "" {
		if len(req.Code) > MaxCodeLength {
			errs.Add("code", fmt.Sprintf("Code must be at most %d characters long", MaxCodeLength))
		}
		if !IsCode(req.Code) {
			errs.Add("code", "Code may contain only letters, digits, '-' and '_'")
		}
		if IsReserved(req.Code) {
			errs.Add("code", "Code is reserved")
		}
	}
	return errs.Err()
}

// IsURL сообщает, является ли строка абсолютным http(s) URL с хостом
func IsURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// reservedCodes совпадают со статическими маршрутами API и не могут быть кодами
var reservedCodes = map[string]struct{}{
	"codes":   {},
	"shorten": {},
	"ping":    {},
	"user":    {},
	"metrics": {},
}

// IsReserved сообщает, занят ли код статическим маршрутом
func IsReserved(code string) bool {
	_, ok := reservedCodes[code]
	return ok
}

// IsCode сообщает, допустим ли пользовательский короткий код в пути
func IsCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func checkName(errs Errors, field, label, value string) {
	n := utf8.RuneCountInString(value)
	if n < MinNameLength {
		errs.Add(field, fmt.Sprintf("%s must be at least %d characters long", label, MinNameLength))
	}
	if n > MaxNameLength {
		errs.Add(field, fmt.Sprintf("%s must be at most %d characters long", label, MaxNameLength))
	}
}

func checkEmail(errs Errors, email string) {
	if len(email) > MaxEmailLength {
		errs.Add("email", fmt.Sprintf("Email must be at most %d characters long", MaxEmailLength))
		return
	}
	addr, err := mail.ParseAddress(email)
	// ParseAddress принимает и "Name <a@b>", поэтому требуем точного совпадения
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		errs.Add("email", "Invalid email address")
	}
}
