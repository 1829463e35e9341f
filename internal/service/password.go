// password.go — хэширование и проверка паролей (bcrypt).
package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxLength — предел bcrypt: учитываются только первые 72 байта.
const bcryptMaxLength = 72

// HashPassword хэширует пароль bcrypt-ом со стоимостью по умолчанию.
// Пароль длиннее 72 байт усекается: bcrypt остальное игнорирует,
// а современные реализации на избыточной длине возвращают ошибку.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword сравнивает пароль с bcrypt-хэшем.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password)) == nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxLength {
		b = b[:bcryptMaxLength]
	}
	return b
}
