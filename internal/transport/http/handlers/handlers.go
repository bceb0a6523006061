package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/unicauca/auth-service/internal/models"
)

// AuthService - операции сервиса, которые обслуживает HTTP-слой.
type AuthService interface {
	Login(ctx context.Context, email, pw string) (*models.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAllAs(ctx context.Context, p *models.Principal, accountID int64) error
	Register(ctx context.Context, email, pw string, roles []string) (*models.Account, error)
	HasRole(ctx context.Context, accountID int64, role string) (bool, error)
	AccountIDByEmail(ctx context.Context, email string) (int64, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Auth AuthService
}

func New(svc AuthService) *Handlers {
	return &Handlers{Auth: svc}
}

// writeJSON - единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// decodeOptional - как decodeStrict, но пустое тело не ошибка.
func decodeOptional(r *http.Request, value any) error {
	if err := decodeStrict(r, value); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
