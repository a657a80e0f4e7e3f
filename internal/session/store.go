// session хранит пару токенов клиента портала и производные от неё данные.
//
// Основные аспекты:
//   - три записи (access, refresh, role) читаются и пишутся только вместе;
//     частично обновлённая тройка не должна быть видна конкурентному читателю;
//   - роль и срок действия для проверок доступа всегда выводятся из
//     access-токена (см. Decode), сохранённая роль — только справочная;
//   - реализации Store безопасны для конкурентного использования.
package session

import (
	"context"
	"errors"
)

var (
	// ErrNoSession — в хранилище нет access-токена.
	ErrNoSession = errors.New("no session")

	// ErrUnknownDriver — в конфигурации указан неизвестный драйвер хранилища.
	ErrUnknownDriver = errors.New("unknown session driver")
)

// Credentials — тройка значений, которую клиент хранит между запусками.
type Credentials struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
	Role    Role   `json:"user_role"`
}

// Empty сообщает, что в тройке нет ни одного токена.
func (c Credentials) Empty() bool {
	return c.Access == "" && c.Refresh == ""
}

// normalized возвращает копию с ролью в нижнем регистре.
func (c Credentials) normalized() Credentials {
	c.Role = NormalizeRole(string(c.Role))
	return c
}

// Store — контракт персистентного key-value хранилища сессии.
type Store interface {
	// Get возвращает текущую тройку; отсутствие сессии — нулевое значение без ошибки.
	Get(ctx context.Context) (Credentials, error)
	// Set целиком заменяет тройку.
	Set(ctx context.Context, c Credentials) error
	// Update выполняет read-modify-write как единую операцию.
	// Если fn вернула ошибку, хранилище не меняется.
	Update(ctx context.Context, fn func(c *Credentials) error) error
	// Clear удаляет все три записи разом.
	Clear(ctx context.Context) error
}
