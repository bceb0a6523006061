package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/storage"
)

const selectAccount = `
	SELECT a.id, a.email, a.password_hash, a.created_at, a.updated_at,
	       COALESCE(array_agg(r.role ORDER BY r.role) FILTER (WHERE r.role IS NOT NULL), '{}')::text[]
	FROM accounts a
	LEFT JOIN account_roles r ON r.account_id = a.id
`

// SaveAccount создает учётную запись вместе с ролями и проставляет ID.
func (s *Storage) SaveAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.postgres.SaveAccount"

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		const ins = `
			INSERT INTO accounts (email, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		if err := tx.QueryRow(ctx, ins,
			account.Email,
			account.PasswordHash,
			account.CreatedAt,
			account.UpdatedAt,
		).Scan(&account.ID); err != nil {
			return err
		}

		if len(account.Roles) == 0 {
			return nil
		}

		const insRoles = `
			INSERT INTO account_roles (account_id, role)
			SELECT $1, unnest($2::text[])
			ON CONFLICT DO NOTHING
		`
		_, err := tx.Exec(ctx, insRoles, account.ID, models.RoleStrings(account.Roles))
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AccountByEmail находит учётную запись по email (CITEXT, без учёта регистра).
func (s *Storage) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.postgres.AccountByEmail"

	query := selectAccount + `WHERE a.email = $1 GROUP BY a.id`

	a, err := scanAccount(s.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// AccountByID находит учётную запись по ID.
func (s *Storage) AccountByID(ctx context.Context, id int64) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := selectAccount + `WHERE a.id = $1 GROUP BY a.id`

	a, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// DeleteAccount удаляет учётную запись; роли и токены удаляются каскадно.
func (s *Storage) DeleteAccount(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteAccount"

	tag, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		a     models.Account
		roles []string
	)

	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt, &roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	a.Roles = make([]models.Role, 0, len(roles))
	for _, r := range roles {
		a.Roles = append(a.Roles, models.Role(r))
	}

	return &a, nil
}
