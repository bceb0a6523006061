package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken - серверная запись refresh-токена.
//
// Token - открытое значение, заполняется только при создании и отдаётся клиенту;
// в хранилище попадает лишь TokenHash (sha256, base64url).
type RefreshToken struct {
	ID        uuid.UUID
	Token     string
	TokenHash string
	AccountID int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// ExpiredAt сообщает, истёк ли токен к моменту now (граница expires_at == now - истёк).
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
