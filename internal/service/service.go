// service содержит бизнес-логику auth-сервиса:
// вход по email/паролю, выпуск access-токенов, жизненный цикл refresh-токенов,
// регистрацию и справочные проверки ролей.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для конкурентного
//     использования, если потокобезопасно переданное хранилище.
//   - Наружу для ошибок аутентификации отдаются только ErrInvalidCredentials и
//     ErrTokenRefresh; детали причин пишутся в лог.
//   - Ошибки маппятся транспортом на HTTP-коды (internal/transport/http/errors).
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unicauca/auth-service/internal/cache"
	"github.com/unicauca/auth-service/internal/config"
	"github.com/unicauca/auth-service/internal/metrics"
	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/password"
	"github.com/unicauca/auth-service/internal/storage"
	"github.com/unicauca/auth-service/internal/token"
)

var (
	// ErrInvalidCredentials - пара email/пароль неверна или учётная запись не найдена.
	// HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenRefresh - refresh-токен не найден, отозван, истёк, либо refresh выключен.
	// HTTP 401.
	ErrTokenRefresh = errors.New("refresh token is invalid")

	// ErrAccountNotFound - учётная запись не существует.
	// HTTP 404 на справочных эндпоинтах, 401 на refresh.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmailTaken - e-mail уже занят. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail - e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword - пароль короче минимальной длины. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrPasswordTooLong - пароль длиннее предела bcrypt (72 байта). HTTP 400.
	ErrPasswordTooLong = errors.New("password is too long")

	// ErrEmptyPassword - пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrUnknownRole - роль вне фиксированного набора. HTTP 400.
	ErrUnknownRole = models.ErrUnknownRole

	// ErrPermissionDenied - операция над чужой учётной записью без нужной роли. HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRefreshTokenCollision - исчерпаны попытки сгенерировать уникальный refresh-токен.
	// HTTP 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage   storage.Storage
	codec     *token.Codec
	refresh   *RefreshStore
	passwords password.Hasher
	cfg       config.AuthConfig
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithRefreshCache подключает кэш refresh-токенов.
func WithRefreshCache(c cache.RefreshCache, entryTTL time.Duration) Option {
	return func(s *Service) {
		s.refresh.cache = c
		if entryTTL > 0 {
			s.refresh.cacheTTL = entryTTL
		}
	}
}

// WithMetrics подключает метрики Prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.refresh.now = now
	}
}

// WithPasswords подменяет реализацию проверки/хэширования паролей.
func WithPasswords(h password.Hasher) Option {
	return func(s *Service) { s.passwords = h }
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, codec *token.Codec, cfg config.AuthConfig, opts ...Option) *Service {
	pw := password.Bcrypt{Cost: cfg.BcryptCost}
	pw.Warm()

	s := &Service{
		storage:   st,
		codec:     codec,
		refresh:   NewRefreshStore(st, cfg.RefreshTokenTTL),
		passwords: pw,
		cfg:       cfg,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RefreshTokens возвращает хранилище refresh-токенов сервиса.
func (s *Service) RefreshTokens() *RefreshStore { return s.refresh }

// Ping проверяет зависимости сервиса (хранилище и, если подключён, кэш).
func (s *Service) Ping(ctx context.Context) error {
	const op = "service.Ping"

	if err := s.storage.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.refresh.cache != nil {
		if err := s.refresh.cache.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}
