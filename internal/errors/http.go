package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Problem — единый формат ошибки для вызывающей стороны оболочки.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type Problem struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Fields    map[string][]string `json:"fields,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error Problem `json:"error"`
}

// ToHTTP конвертирует ошибку клиента в HTTP-статус и тело ответа оболочки.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - *ValidationError — 400 с полями;
//   - *APIError — 4xx бэкенда проксируются как есть, 503 — как 503, прочие 5xx — 502;
//   - *TimeoutError — 504, *NetworkError — 502 (или 499, если клиент ушёл);
//   - *RequestSetupError и всё неизвестное — 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var (
		ve *ValidationError
		ae *APIError
		te *TimeoutError
		ne *NetworkError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorResponse{Error: Problem{
			Code:    "validation_failed",
			Message: "validation failed",
			Fields:  ve.Fields,
		}}
	case errors.As(err, &ae):
		status, code, msg := fromUpstream(ae.Status)
		if ae.Detail != "" && status < http.StatusInternalServerError {
			msg = ae.Detail
		}

		return status, ErrorResponse{Error: Problem{Code: code, Message: msg}}
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, ErrorResponse{Error: Problem{Code: "canceled", Message: "canceled"}}
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: Problem{Code: "deadline_exceeded", Message: "deadline exceeded"}}
	case errors.As(err, &ne):
		return http.StatusBadGateway, ErrorResponse{Error: Problem{Code: "upstream_unreachable", Message: "backend unreachable"}}
	default:
		return internal()
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)
	Write(w, r, status, resp)
}

// Write отправляет готовое тело ошибки.
func Write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{Error: Problem{
		Code:    "internal",
		Message: "internal error",
	}}
}

// fromUpstream — маппинг статуса бэкенда в статус/код оболочки.
func fromUpstream(status int) (int, string, string) {
	switch status {
	case http.StatusBadRequest:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case http.StatusUnauthorized:
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case http.StatusForbidden:
		return http.StatusForbidden, "permission_denied", "permission denied"
	case http.StatusNotFound:
		return http.StatusNotFound, "not_found", "not found"
	case http.StatusConflict:
		return http.StatusConflict, "already_exists", "already exists"
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "resource_exhausted", "resource exhausted"
	case http.StatusServiceUnavailable:
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	}

	if status >= 400 && status < 500 {
		return status, "rejected", "request rejected"
	}

	return http.StatusBadGateway, "upstream_error", "backend error"
}
