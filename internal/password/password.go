// Package password хеширует пароли пользователей: HMAC-SHA256 с солью
// в качестве ключа, результат в шестнадцатеричном виде.
package password

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// SaltSize задаёт количество случайных байт соли
const SaltSize = 256

// GenerateSalt возвращает криптографически случайную соль в hex (2*SaltSize символов)
func GenerateSalt() string {
	b := make([]byte, SaltSize)
	// crypto/rand.Read не возвращает ошибку начиная с Go 1.24
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateHash детерминированно вычисляет HMAC-SHA256(password) с ключом salt
func GenerateHash(password, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// Compare сверяет пароль с сохранённым хешем за постоянное время
func Compare(password, salt, hash string) bool {
	return hmac.Equal([]byte(GenerateHash(password, salt)), []byte(hash))
}
