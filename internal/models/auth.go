// Входные/выходные модели REST-бэкенда портала.
package models

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair — ответ эндпойнта выдачи токенов. Role и RedirectURL бэкенд
// добавляет только при входе.
type TokenPair struct {
	Access      string `json:"access"`
	Refresh     string `json:"refresh"`
	Role        string `json:"role,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// RegisterResponse — 201 после регистрации. Токены клиент не сохраняет.
type RegisterResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Role    string `json:"role"`
}

// Session — итог успешного входа без самих токенов.
type Session struct {
	Role        string `json:"role"`
	RedirectURL string `json:"redirect_url,omitempty"`
}
