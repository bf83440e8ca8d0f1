package services

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const DefaultCodeLength = 6

var ten = big.NewInt(10)

// GenerateCode возвращает строку из length десятичных цифр, каждая
// равновероятна; ведущие нули сохраняются. Уникальность не гарантируется.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
