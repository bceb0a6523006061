package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unicauca/auth-service/internal/config"
	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/storage/memory"
	"github.com/unicauca/auth-service/internal/token"
	"github.com/unicauca/auth-service/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "unit-secret",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		Issuer:               "auth-service",
		Audience:             []string{"unicauca"},
		BcryptCost:           bcrypt.MinCost,
		AccountLookupTimeout: time.Second,
	}
}

// clock - управляемые часы для сценариев с истечением срока.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now().UTC()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCodec(t *testing.T, cfg config.AuthConfig, now func() time.Time) *token.Codec {
	t.Helper()
	c, err := token.New(cfg, token.WithClock(now))
	require.NoError(t, err)
	return c
}

// newMemSvc - сервис поверх хранилища в памяти.
func newMemSvc(t *testing.T, cfg config.AuthConfig, opts ...Option) (*Service, *memory.Storage, *clock) {
	t.Helper()
	clk := newClock()
	st := memory.New()
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	svc := New(st, newCodec(t, cfg, clk.Now), cfg, opts...)
	return svc, st, clk
}

// newMockSvc - сервис поверх gomock-хранилища.
func newMockSvc(t *testing.T, cfg config.AuthConfig, opts ...Option) (*Service, *mocks.MockStorage) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, newCodec(t, cfg, time.Now), cfg, opts...)
	return svc, st
}

func register(t *testing.T, svc *Service, email, pw string, roles ...string) *models.Account {
	t.Helper()
	a, err := svc.Register(context.Background(), email, pw, roles)
	require.NoError(t, err)
	return a
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}
