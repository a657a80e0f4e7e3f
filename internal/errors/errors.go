// errors описывает таксономию отказов клиента портала и их отображение
// в ответы локальной оболочки.
//
// Каждый окончательно неудавшийся вызов Client.Do даёт ровно одну ошибку:
//   - *ValidationError — 400 с полем validation_errors;
//   - *APIError — любой другой не-2xx ответ (статус и тело);
//   - *NetworkError — запрос ушёл, ответа нет;
//   - *TimeoutError — истёк клиентский таймаут;
//   - *RequestSetupError — запрос не удалось даже собрать.
//
// Вызывающий код различает их через errors.As.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ValidationError — бэкенд отверг данные формы (400 + validation_errors).
type ValidationError struct {
	Status int
	// Fields — поле -> список сообщений. Пусто, если бэкенд прислал иную форму.
	Fields map[string][]string
	// Raw — validation_errors как пришли.
	Raw json.RawMessage
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// APIError — не-2xx ответ бэкенда, кроме ошибок валидации.
type APIError struct {
	Status int
	// Data — тело ответа без изменений.
	Data []byte
	// Detail — поле detail из JSON-тела, если есть.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Detail)
	}

	return fmt.Sprintf("api error: status %d", e.Status)
}

// NetworkError — запрос отправлен, ответ не получен.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError — истёк таймаут попытки или дедлайн вызывающего.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return "timeout: " + e.Err.Error() }
func (e *TimeoutError) Unwrap() error { return e.Err }

// RequestSetupError — ошибка до отправки: URL, кодирование тела, конфигурация.
type RequestSetupError struct {
	Err error
}

func (e *RequestSetupError) Error() string { return "request setup: " + e.Err.Error() }
func (e *RequestSetupError) Unwrap() error { return e.Err }

// FromResponse строит ошибку по не-2xx ответу.
func FromResponse(status int, body []byte) error {
	var envelope struct {
		ValidationErrors json.RawMessage `json:"validation_errors"`
		Detail           string          `json:"detail"`
	}

	// Тело может быть не JSON (HTML-страница прокси и т.п.).
	_ = json.Unmarshal(body, &envelope)

	if status == http.StatusBadRequest && len(envelope.ValidationErrors) > 0 && string(envelope.ValidationErrors) != "null" {
		ve := &ValidationError{Status: status, Raw: envelope.ValidationErrors}

		var fields map[string][]string
		if err := json.Unmarshal(envelope.ValidationErrors, &fields); err == nil {
			ve.Fields = fields
		}

		return ve
	}

	return &APIError{Status: status, Data: body, Detail: envelope.Detail}
}

// FromTransport классифицирует ошибку http.RoundTripper.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Err: err}
	}

	return &NetworkError{Err: err}
}

// Transient — отказ, после которого допустим один повтор:
// нет ответа, таймаут или 503.
func Transient(err error) bool {
	var (
		ne *NetworkError
		te *TimeoutError
		ae *APIError
	)

	switch {
	case errors.As(err, &ne), errors.As(err, &te):
		return true
	case errors.As(err, &ae):
		return ae.Status == http.StatusServiceUnavailable
	default:
		return false
	}
}

// StatusOf возвращает HTTP-статус ответа бэкенда или 0, если ответа не было.
func StatusOf(err error) int {
	var (
		ve *ValidationError
		ae *APIError
	)

	switch {
	case errors.As(err, &ve):
		return ve.Status
	case errors.As(err, &ae):
		return ae.Status
	default:
		return 0
	}
}
