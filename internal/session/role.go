package session

import "strings"

// Role — роль пользователя портала. Значения всегда в нижнем регистре.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// NormalizeRole приводит строку роли к каноничному виду: без пробелов, lower case.
func NormalizeRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Known сообщает, что роль входит в перечень ролей портала.
func (r Role) Known() bool {
	switch r {
	case RoleStudent, RoleFaculty:
		return true
	default:
		return false
	}
}

// In проверяет вхождение роли в набор без учёта регистра.
func (r Role) In(allowed []Role) bool {
	rn := NormalizeRole(string(r))
	if rn == "" {
		return false
	}

	for _, a := range allowed {
		if NormalizeRole(string(a)) == rn {
			return true
		}
	}

	return false
}

func (r Role) String() string { return string(r) }
