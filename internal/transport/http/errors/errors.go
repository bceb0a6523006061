// errors стандартизирует ответы об ошибках HTTP-слоя auth-сервиса.
// На вход он принимает ошибку сервисного слоя (sentinel, обёрнутый через %w),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Это единственное место, где выбираются HTTP-статусы ошибок.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/unicauca/auth-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrUnauthenticated - запрос без валидного access-токена на защищённом маршруте.
	ErrUnauthenticated = stderrors.New("unauthenticated")
	// ErrForbidden - принципал есть, но не хватает роли.
	ErrForbidden = stderrors.New("forbidden")
	// ErrBadRequest - тело или параметры запроса не разбираются.
	ErrBadRequest = stderrors.New("bad request")
	// ErrInternal - программная ошибка (паника, nil-ошибка).
	ErrInternal = stderrors.New("internal")
)

// APIError - единый формат для клиентов.
// Code - короткий стабильный код для машиночитаемой обработки.
// Message - безопасное человекочитаемое описание.
// RequestID - прокидывается из X-Request-Id, если есть.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse - корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil - программная ошибка вызова: 500/internal;
//   - известный sentinel - см. таблицу в baseFromError;
//   - прочее - 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	httpStatus, code, msg := baseFromError(err)

	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError - хелпер для HTTP-хендлеров и мидлваров.
// Пишет статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromError - маппинг ошибок сервиса на HTTP/код/сообщение:
//   - ErrInvalidCredentials, ErrTokenRefresh, ErrUnauthenticated -> 401
//   - ErrPermissionDenied, ErrForbidden -> 403
//   - ErrAccountNotFound -> 404 (refresh-хендлер сам сводит его к 401)
//   - ErrEmailTaken -> 409
//   - ErrInvalidEmail, ErrWeakPassword, ErrPasswordTooLong, ErrEmptyPassword,
//     ErrUnknownRole, ErrBadRequest -> 400
//   - context.DeadlineExceeded -> 504
//   - context.Canceled -> 499
//   - прочее -> 500/internal
func baseFromError(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid email or password"
	case stderrors.Is(err, service.ErrTokenRefresh):
		return http.StatusUnauthorized, "invalid_refresh_token", "refresh token is invalid or expired"
	case stderrors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "authentication required"
	case stderrors.Is(err, service.ErrPermissionDenied), stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden, "permission_denied", "permission denied"
	case stderrors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, "not_found", "account not found"
	case stderrors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "email already registered"
	case stderrors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email", "invalid email format"
	case stderrors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "empty_password", "password is required"
	case stderrors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password", "password is too short"
	case stderrors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest, "password_too_long", "password is too long"
	case stderrors.Is(err, service.ErrUnknownRole):
		return http.StatusBadRequest, "unknown_role", "unknown role"
	case stderrors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
