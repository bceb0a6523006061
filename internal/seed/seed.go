// seed создаёт служебные учётные записи при старте сервиса.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/unicauca/auth-service/internal/config"
	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/pkg/log"
	"github.com/unicauca/auth-service/internal/pkg/redact"
	"github.com/unicauca/auth-service/internal/service"
)

// Account - учётная запись для первичного заполнения.
type Account struct {
	Email string
	Role  models.Role
}

// Defaults - учётные записи, которые создаются при включённом seed.
var Defaults = []Account{
	{Email: "director@unicauca.edu.co", Role: models.RoleDirector},
	{Email: "coordinador@unicauca.edu.co", Role: models.RoleCoordinator},
}

// Registrar - часть сервиса, нужная для seed.
type Registrar interface {
	Register(ctx context.Context, email, pw string, roles []string) (*models.Account, error)
}

// Run создаёт учётные записи Defaults с паролем cfg.DefaultPassword.
// Уже существующие пропускаются. Возвращает число созданных записей.
func Run(ctx context.Context, r Registrar, cfg config.SeedConfig) (int, error) {
	const op = "seed.Run"

	if !cfg.Enabled {
		return 0, nil
	}

	lg := log.From(ctx)
	created := 0

	for _, a := range Defaults {
		acc, err := r.Register(ctx, a.Email, cfg.DefaultPassword, []string{string(a.Role)})
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				lg.Debug("seed_account_exists", slog.String("email", redact.Email(a.Email)))
				continue
			}

			return created, fmt.Errorf("%s: %w", op, err)
		}

		created++
		lg.Info("seed_account_created",
			slog.Int64("account_id", acc.ID),
			slog.String("role", string(a.Role)),
		)
	}

	return created, nil
}
