package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unicauca/auth-service/internal/config"
	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/service"
	"github.com/unicauca/auth-service/internal/storage/memory"
	"github.com/unicauca/auth-service/internal/token"
)

func newService(t *testing.T) *service.Service {
	t.Helper()

	cfg := config.AuthConfig{
		JWTSecret:            "seed-secret",
		AccessTokenTTL:       time.Minute,
		RefreshTokenTTL:      time.Hour,
		Issuer:               "auth-service",
		Audience:             []string{"unicauca"},
		BcryptCost:           bcrypt.MinCost,
		AccountLookupTimeout: time.Second,
	}

	codec, err := token.New(cfg)
	require.NoError(t, err)

	return service.New(memory.New(), codec, cfg)
}

func TestRun_Disabled_NoOp(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	n, err := Run(context.Background(), svc, config.SeedConfig{Enabled: false, DefaultPassword: "123456"})
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = svc.AccountIDByEmail(context.Background(), "director@unicauca.edu.co")
	require.ErrorIs(t, err, service.ErrAccountNotFound)
}

func TestRun_CreatesDefaultsOnce(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()
	cfg := config.SeedConfig{Enabled: true, DefaultPassword: "123456"}

	n, err := Run(ctx, svc, cfg)
	require.NoError(t, err)
	require.Equal(t, len(Defaults), n)

	n, err = Run(ctx, svc, cfg)
	require.NoError(t, err)
	require.Zero(t, n, "existing accounts are skipped")

	res, err := svc.Login(ctx, "director@unicauca.edu.co", "123456")
	require.NoError(t, err)
	require.Equal(t, []models.Role{models.RoleDirector}, res.Roles)

	res, err = svc.Login(ctx, "coordinador@unicauca.edu.co", "123456")
	require.NoError(t, err)
	require.Equal(t, []models.Role{models.RoleCoordinator}, res.Roles)
}

type failingRegistrar struct{ err error }

func (f failingRegistrar) Register(context.Context, string, string, []string) (*models.Account, error) {
	return nil, f.err
}

func TestRun_PropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	n, err := Run(context.Background(), failingRegistrar{err: boom}, config.SeedConfig{Enabled: true, DefaultPassword: "123456"})
	require.ErrorIs(t, err, boom)
	require.Zero(t, n)

	_, err = Run(context.Background(), failingRegistrar{err: service.ErrWeakPassword}, config.SeedConfig{Enabled: true, DefaultPassword: "1"})
	require.ErrorIs(t, err, service.ErrWeakPassword)
}
