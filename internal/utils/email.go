package utils

import "strings"

// NormalizeEmail — trim + lower, как email хранится в users.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LooksLikeEmail — грубая проверка формы: есть '@' и '.'.
func LooksLikeEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// MaskEmail прячет локальную часть для логов: "john@example.com" -> "j***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
