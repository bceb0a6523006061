package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/unicauca/auth-service/internal/cache"
	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/pkg/log"
	"github.com/unicauca/auth-service/internal/storage"
)

const (
	refreshTokenBytes    = 32
	refreshMaxAttempts   = 5
	defaultCacheEntryTTL = 10 * time.Minute
)

// RefreshStore управляет серверными refresh-токенами: выпуск, поиск действующего,
// отзыв одного и всех токенов аккаунта. В хранилище попадает только хэш.
type RefreshStore struct {
	storage  storage.RefreshTokenStorage
	cache    cache.RefreshCache // может быть nil
	ttl      time.Duration
	cacheTTL time.Duration
	now      func() time.Time
}

// NewRefreshStore создаёт RefreshStore поверх хранилища.
func NewRefreshStore(st storage.RefreshTokenStorage, ttl time.Duration) *RefreshStore {
	return &RefreshStore{
		storage:  st,
		ttl:      ttl,
		cacheTTL: defaultCacheEntryTTL,
		now:      time.Now,
	}
}

// HashRefreshToken возвращает sha256(plain) в base64url без паддинга.
func HashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Create выпускает новый refresh-токен для аккаунта.
// Открытое значение возвращается только здесь, в поле Token.
func (r *RefreshStore) Create(ctx context.Context, accountID int64) (*models.RefreshToken, error) {
	const op = "service.RefreshStore.Create"

	lg := log.From(ctx)

	for attempt := 0; attempt < refreshMaxAttempts; attempt++ {
		b := make([]byte, refreshTokenBytes)
		if _, err := rand.Read(b); err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		plain := base64.RawURLEncoding.EncodeToString(b)

		now := r.now().UTC()
		token := &models.RefreshToken{
			ID:        uuid.New(),
			Token:     plain,
			TokenHash: HashRefreshToken(plain),
			AccountID: accountID,
			CreatedAt: now,
			ExpiresAt: now.Add(r.ttl),
		}

		if err := r.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия - пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return token, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// FindValid находит действующий токен. Отсутствующий, отозванный и истёкший
// токены различаются только в логах; наружу это ErrTokenRefresh.
func (r *RefreshStore) FindValid(ctx context.Context, plain string) (*models.RefreshToken, error) {
	const op = "service.RefreshStore.FindValid"

	lg := log.From(ctx)

	if plain == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRefresh)
	}

	hash := HashRefreshToken(plain)
	now := r.now().UTC()

	if token, ok := r.fromCache(ctx, hash); ok {
		return r.check(ctx, op, token, now)
	}

	token, err := r.storage.RefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_lookup_not_found",
				slog.String("op", op),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrTokenRefresh)
		}

		lg.Error("refresh_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.toCache(ctx, token, now)

	return r.check(ctx, op, token, now)
}

func (r *RefreshStore) check(ctx context.Context, op string, token *models.RefreshToken, now time.Time) (*models.RefreshToken, error) {
	lg := log.From(ctx)

	if token.Revoked {
		lg.Warn("refresh_revoked",
			slog.String("op", op),
			slog.Int64("account_id", token.AccountID),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRefresh)
	}

	if token.ExpiredAt(now) {
		lg.Warn("refresh_expired",
			slog.String("op", op),
			slog.Int64("account_id", token.AccountID),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRefresh)
	}

	return token, nil
}

// fromCache читает запись из кэша; ошибки кэша не фатальны, идём в хранилище.
func (r *RefreshStore) fromCache(ctx context.Context, hash string) (*models.RefreshToken, bool) {
	if r.cache == nil {
		return nil, false
	}

	e, ok, err := r.cache.Get(ctx, hash)
	if err != nil {
		log.From(ctx).Warn("refresh_cache_get_failed",
			slog.String("err", err.Error()),
		)
		return nil, false
	}

	if !ok {
		return nil, false
	}

	return &models.RefreshToken{
		TokenHash: hash,
		AccountID: e.AccountID,
		ExpiresAt: e.ExpiresAt,
		Revoked:   e.Revoked,
	}, true
}

func (r *RefreshStore) toCache(ctx context.Context, token *models.RefreshToken, now time.Time) {
	if r.cache == nil {
		return
	}

	ttl := r.cacheTTL
	if left := token.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}

	entry := &cache.RefreshEntry{
		AccountID: token.AccountID,
		Revoked:   token.Revoked,
		ExpiresAt: token.ExpiresAt,
	}
	if err := r.cache.Set(ctx, token.TokenHash, entry, ttl); err != nil {
		log.From(ctx).Warn("refresh_cache_set_failed",
			slog.String("err", err.Error()),
		)
	}
}

// Revoke отзывает токен. Идемпотентна: неизвестный токен - не ошибка.
func (r *RefreshStore) Revoke(ctx context.Context, plain string) error {
	const op = "service.RefreshStore.Revoke"

	if plain == "" {
		return nil
	}

	hash := HashRefreshToken(plain)

	revoked, err := r.storage.RevokeRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Debug("refresh_revoke_unknown",
				slog.String("op", op),
			)
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !revoked {
		log.From(ctx).Debug("refresh_revoke_repeated",
			slog.String("op", op),
		)
	}

	if err := r.markRevoked(ctx, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RevokeAllForAccount отзывает все токены аккаунта. Токены, выпущенные после
// завершения вызова, остаются действительными.
//
// Хранилище возвращает хэши всех токенов аккаунта, поэтому повторный вызов после
// сбоя кэша заново ставит надгробия. Ошибка кэша на одном хэше не прерывает обход.
func (r *RefreshStore) RevokeAllForAccount(ctx context.Context, accountID int64) error {
	const op = "service.RefreshStore.RevokeAllForAccount"

	hashes, err := r.storage.RevokeAllForAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var cacheErrs []error
	for _, h := range hashes {
		if err := r.markRevoked(ctx, h); err != nil {
			cacheErrs = append(cacheErrs, err)
		}
	}

	if len(cacheErrs) > 0 {
		log.From(ctx).Error("refresh_cache_mark_failed",
			slog.String("op", op),
			slog.Int64("account_id", accountID),
			slog.Int("failed", len(cacheErrs)),
		)
		return fmt.Errorf("%s: %w", op, errors.Join(cacheErrs...))
	}

	log.From(ctx).Info("refresh_revoked_all",
		slog.Int64("account_id", accountID),
		slog.Int("count", len(hashes)),
	)

	return nil
}

// DeleteExpired удаляет истёкшие токены из хранилища.
func (r *RefreshStore) DeleteExpired(ctx context.Context) (int64, error) {
	const op = "service.RefreshStore.DeleteExpired"

	n, err := r.storage.DeleteExpiredTokens(ctx, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *RefreshStore) markRevoked(ctx context.Context, hash string) error {
	if r.cache == nil {
		return nil
	}

	return r.cache.MarkRevoked(ctx, hash, r.cacheTTL)
}
