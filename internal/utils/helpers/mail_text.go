package helpers

import (
	"fmt"
	"time"
)

// BuildResetCodeText — текст письма с кодом восстановления.
func BuildResetCodeText(code string, ttl time.Duration) string {
	return fmt.Sprintf(`Hello!

Your password recovery code: %s

Attention! The code is valid for %s.

If you did not request password recovery, ignore this email.

Sincerely,
Customer Support.
`, code, humanizeTTL(ttl))
}

func humanizeTTL(ttl time.Duration) string {
	if ttl < time.Minute {
		return fmt.Sprintf("%d seconds", int(ttl.Seconds()))
	}
	m := int(ttl.Minutes())
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
