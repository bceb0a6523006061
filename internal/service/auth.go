package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/pkg/log"
	"github.com/unicauca/auth-service/internal/pkg/redact"
	"github.com/unicauca/auth-service/internal/storage"
)

const (
	// minPasswordLen - минимальная длина пароля при регистрации, в символах.
	minPasswordLen = 6
	// maxPasswordBytes - предел bcrypt, в байтах.
	maxPasswordBytes = 72
)

// Login выполняет вход по email+пароль.
// Любая причина отказа (формат email, пустой пароль, неизвестный email,
// неверный пароль) возвращается как ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, pw string) (*models.LoginResult, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	reject := func(reason string) error {
		lg.Warn("login_rejected",
			slog.String("op", op),
			slog.String("reason", reason),
			slog.String("email", redact.Email(email)),
		)
		s.metrics.AuthEvent("login", "invalid_credentials")
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return nil, reject("bad_email")
	}

	if pw == "" {
		return nil, reject("empty_password")
	}

	account, err := s.storage.AccountByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.passwords.Burn(pw)
			return nil, reject("unknown_email")
		}

		s.metrics.AuthEvent("login", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.passwords.Verify(pw, account.PasswordHash) {
		return nil, reject("wrong_password")
	}

	roles, err := models.NormalizeRoles(account.Roles)
	if err != nil {
		s.metrics.AuthEvent("login", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	access, exp, err := s.codec.Issue(account.ID, roles, now)
	if err != nil {
		s.metrics.AuthEvent("login", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &models.LoginResult{
		AccessToken:     access,
		AccessExpiresAt: exp,
		AccountID:       account.ID,
		Roles:           roles,
	}

	if s.cfg.RefreshEnabled() {
		rt, err := s.refresh.Create(ctx, account.ID)
		if err != nil {
			s.metrics.AuthEvent("login", "error")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res.RefreshToken = rt.Token
	}

	lg.Info("login_succeeded",
		slog.Int64("account_id", account.ID),
		slog.Bool("refresh_issued", res.RefreshToken != ""),
	)
	s.metrics.AuthEvent("login", "success")

	return res, nil
}

// Refresh выпускает новый access-токен по действующему refresh-токену.
// Роли перечитываются из текущей учётной записи; сам refresh-токен не ротируется.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResult, error) {
	const op = "service.auth.Refresh"

	if !s.cfg.RefreshEnabled() {
		s.metrics.AuthEvent("refresh", "disabled")
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRefresh)
	}

	rt, err := s.refresh.FindValid(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenRefresh) {
			s.metrics.AuthEvent("refresh", "rejected")
		} else {
			s.metrics.AuthEvent("refresh", "error")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.AccountLookupTimeout)
	defer cancel()

	account, err := s.storage.AccountByID(lookupCtx, rt.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Warn("refresh_account_missing",
				slog.String("op", op),
				slog.Int64("account_id", rt.AccountID),
			)
			s.metrics.AuthEvent("refresh", "account_not_found")
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		s.metrics.AuthEvent("refresh", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	roles, err := models.NormalizeRoles(account.Roles)
	if err != nil {
		s.metrics.AuthEvent("refresh", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, exp, err := s.codec.Issue(account.ID, roles, s.now().UTC())
	if err != nil {
		s.metrics.AuthEvent("refresh", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.AuthEvent("refresh", "success")

	return &models.RefreshResult{
		AccessToken:     access,
		AccessExpiresAt: exp,
		AccountID:       account.ID,
		Roles:           roles,
	}, nil
}

// Logout отзывает refresh-токен. Неизвестный или уже отозванный токен - не ошибка.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		s.metrics.AuthEvent("logout", "error")
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.AuthEvent("logout", "success")

	return nil
}

// LogoutAll отзывает все refresh-токены аккаунта («выйти на всех устройствах»).
// Уже выданные access-токены продолжают действовать до истечения.
func (s *Service) LogoutAll(ctx context.Context, accountID int64) error {
	const op = "service.auth.LogoutAll"

	if err := s.refresh.RevokeAllForAccount(ctx, accountID); err != nil {
		s.metrics.AuthEvent("logout_all", "error")
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.AuthEvent("logout_all", "success")

	return nil
}

// LogoutAllAs выполняет LogoutAll от имени принципала: свой аккаунт можно всегда,
// чужой - только с ролью DIRECTOR. accountID == 0 означает аккаунт принципала.
func (s *Service) LogoutAllAs(ctx context.Context, p *models.Principal, accountID int64) error {
	const op = "service.auth.LogoutAllAs"

	if p == nil {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if accountID == 0 {
		accountID = p.AccountID
	}

	if accountID != p.AccountID && !p.HasRole(models.RoleDirector) {
		log.From(ctx).Warn("logout_all_forbidden",
			slog.Int64("caller_id", p.AccountID),
			slog.Int64("account_id", accountID),
		)
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if err := s.LogoutAll(ctx, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Register создаёт учётную запись. Без ролей назначается STUDENT.
func (s *Service) Register(ctx context.Context, email, pw string, roles []string) (*models.Account, error) {
	const op = "service.auth.Register"

	normEmail, err := normalizeEmail(email)
	if err != nil {
		s.metrics.AuthEvent("register", "invalid")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(pw); err != nil {
		s.metrics.AuthEvent("register", "invalid")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	parsed, err := parseRoles(roles)
	if err != nil {
		s.metrics.AuthEvent("register", "invalid")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.AccountByEmail(ctx, normEmail)
	if err == nil {
		s.metrics.AuthEvent("register", "conflict")
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.metrics.AuthEvent("register", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.passwords.Hash(pw)
	if err != nil {
		s.metrics.AuthEvent("register", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	account := &models.Account{
		Email:        normEmail,
		PasswordHash: hash,
		Roles:        parsed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			s.metrics.AuthEvent("register", "conflict")
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		s.metrics.AuthEvent("register", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("account_registered",
		slog.Int64("account_id", account.ID),
		slog.Any("roles", models.RoleStrings(account.Roles)),
	)
	s.metrics.AuthEvent("register", "success")

	return account, nil
}

// HasRole сообщает, есть ли у аккаунта роль. Неизвестная роль или аккаунт - false без ошибки.
func (s *Service) HasRole(ctx context.Context, accountID int64, role string) (bool, error) {
	const op = "service.auth.HasRole"

	r, err := models.ParseRole(role)
	if err != nil {
		return false, nil
	}

	account, err := s.storage.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return models.HasRole(account.Roles, r), nil
}

// AccountIDByEmail возвращает ID учётной записи по email.
func (s *Service) AccountIDByEmail(ctx context.Context, email string) (int64, error) {
	const op = "service.auth.AccountIDByEmail"

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.storage.AccountByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return account.ID, nil
}

// DeleteExpiredRefreshTokens удаляет истёкшие refresh-токены (фоновая очистка).
func (s *Service) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.refresh.DeleteExpired(ctx)
}

// normalizeEmail проверяет формат email и приводит его к нижнему регистру.
// Адрес с отображаемым именем ("Name <a@b>") не принимается.
func normalizeEmail(raw string) (string, error) {
	const op = "service.auth.normalizeEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < minPasswordLen {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	if len(pw) > maxPasswordBytes {
		return fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	return nil
}

func parseRoles(raw []string) ([]models.Role, error) {
	const op = "service.auth.parseRoles"

	if len(raw) == 0 {
		return []models.Role{models.RoleStudent}, nil
	}

	roles := make([]models.Role, 0, len(raw))
	for _, s := range raw {
		r, err := models.ParseRole(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		roles = append(roles, r)
	}

	return models.NormalizeRoles(roles)
}
