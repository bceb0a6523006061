// storage описывает контракт хранилища учётных записей и refresh-токенов.
// Реализации: postgres (pgxpool) и memory (для локального запуска и тестов).
package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/storage_mock.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/unicauca/auth-service/internal/models"
)

var (
	// ErrNotFound - запись не найдена (учётная запись/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists - нарушение уникальности (email/хэш refresh-токена).
	ErrAlreadyExists = errors.New("already exists")
)

// AccountStorage выполняет операции над учётными записями.
type AccountStorage interface {
	// SaveAccount создаёт учётную запись и проставляет ей ID.
	SaveAccount(ctx context.Context, account *models.Account) error
	// AccountByEmail находит учётную запись по email (без учёта регистра).
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// AccountByID находит учётную запись по ID.
	AccountByID(ctx context.Context, id int64) (*models.Account, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-токен. Сохранение сериализуется
	// с RevokeAllForAccount того же аккаунта.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash находит refresh-токен по его хэшу.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// RevokeRefreshToken отзывает токен; true - если токен был активен и отозван сейчас.
	// Для неизвестного хэша возвращает (false, ErrNotFound).
	RevokeRefreshToken(ctx context.Context, hash string) (bool, error)
	// RevokeAllForAccount отзывает все токены аккаунта и возвращает хэши всех его
	// токенов, включая отозванные ранее: повторный вызов снова видит полный набор.
	RevokeAllForAccount(ctx context.Context, accountID int64) ([]string, error)
	// DeleteExpiredTokens удаляет токены с expires_at <= now и возвращает их количество.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Storage задаёт контракт работы с хранилищем.
type Storage interface {
	AccountStorage
	RefreshTokenStorage
	// Ping проверяет доступность хранилища (readiness).
	Ping(ctx context.Context) error
	Close()
}
