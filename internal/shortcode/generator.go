// Package shortcode генерирует короткие коды, свободные в хранилище ссылок
// на момент проверки.
package shortcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultLength = 7
	MaxLength     = 15

	// Длины кодов для двух точек входа: API и HTML-форма
	APICodeLength  = DefaultLength
	FormCodeLength = 8
)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Checker сообщает, занят ли код
type Checker interface {
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
}

type Generator struct {
	checker Checker
}

func NewGenerator(checker Checker) *Generator {
	return &Generator{checker: checker}
}

// Generate повторяет попытки, пока не найдёт свободный код. Ограничения на
// число попыток нет: цикл прерывается только ошибкой хранилища или отменой ctx.
// Код не резервируется, гонку разрешает уникальный индекс в БД.
func (g *Generator) Generate(ctx context.Context, length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := Random(length)
		if err != nil {
			return "", err
		}

		exists, err := g.checker.ExistsByShortCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
}

// Random возвращает length равновероятных символов из Alphabet.
// При length <= 0 используется DefaultLength.
func Random(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		result[i] = Alphabet[num.Int64()]
	}
	return string(result), nil
}

// Valid проверяет, мог ли код быть выдан: 1..MaxLength букв и цифр
func Valid(code string) bool {
	if len(code) == 0 || len(code) > MaxLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
