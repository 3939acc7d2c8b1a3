// Package service содержит бизнес-логику регистрации пользователей
// и управления короткими ссылками.
package service

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var (
	ErrEmptyURL           = errors.New("empty URL")
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrDuplicateCode      = errors.New("short code already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUniqueIDFailed     = errors.New("failed to generate unique ID")
)

const (
	// CodeLength задаёт длину сгенерированного короткого кода
	CodeLength = 7
	// CodeAlphabet не содержит похожих символов (0/O, 1/l/I)
	CodeAlphabet = "23456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	// codeAttempts: сколько раз пробуем сгенерированный код при коллизии
	codeAttempts = 2
)

// CodeGenerator возвращает новый короткий код
type CodeGenerator func() (string, error)

// GenerateShortCode генерирует случайный код длины CodeLength из CodeAlphabet
func GenerateShortCode() (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = CodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
