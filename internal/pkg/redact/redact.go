// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Username оставляет первые два символа логина.
func Username(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}

// Token никогда не отдаёт сам токен, только признак его наличия.
func Token(s string) string {
	if s == "" {
		return "[EMPTY]"
	}

	return "[REDACTED_TOKEN]"
}

func Password() string { return "[REDACTED_PASSWORD]" }

// Authorization маскирует значение заголовка Authorization, сохраняя схему.
func Authorization(v string) string {
	if v == "" {
		return ""
	}

	if scheme, _, ok := strings.Cut(v, " "); ok {
		return scheme + " " + Token("x")
	}

	return Token(v)
}
