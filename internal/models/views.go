package models

// View — описание отображения, которое оболочка отдаёт после допуска.
type View struct {
	Name     string `json:"view"`
	Role     string `json:"role,omitempty"`
	Location string `json:"location"`
	Data     any    `json:"data,omitempty"`
}

// LoginView — форма входа; Next — куда вернуть пользователя после входа.
type LoginView struct {
	Name  string `json:"view"`
	Next  string `json:"next,omitempty"`
	Error string `json:"error,omitempty"`
}
