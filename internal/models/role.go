package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole - роль не входит в фиксированный набор Role.
var ErrUnknownRole = errors.New("unknown role")

// Role - тег роли аккаунта.
type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleCoordinator Role = "COORDINATOR"
	RoleDirector    Role = "DIRECTOR"
)

// wireRolePrefix - префикс строкового представления роли внутри access-токена.
const wireRolePrefix = "ROLE_"

// AllRoles - полный перечень ролей. Маппинг Wire/ParseWireRole обязан
// покрывать каждый элемент (проверяется тестом).
var AllRoles = []Role{RoleStudent, RoleCoordinator, RoleDirector}

// Wire возвращает каноническое представление роли в claims токена.
// Маппинг один и тот же при выпуске и при сравнении с политикой маршрута.
func (r Role) Wire() (string, error) {
	switch r {
	case RoleStudent:
		return wireRolePrefix + string(RoleStudent), nil
	case RoleCoordinator:
		return wireRolePrefix + string(RoleCoordinator), nil
	case RoleDirector:
		return wireRolePrefix + string(RoleDirector), nil
	default:
		return "", fmt.Errorf("models.Role.Wire: %q: %w", string(r), ErrUnknownRole)
	}
}

// Valid сообщает, входит ли роль в фиксированный набор.
func (r Role) Valid() bool {
	_, err := r.Wire()
	return err == nil
}

// ParseRole разбирает тег роли без учёта регистра и пробелов по краям ("director" -> RoleDirector).
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("models.ParseRole: %q: %w", s, ErrUnknownRole)
	}

	return r, nil
}

// ParseWireRole - обратный к Wire маппинг. Принимает только точное
// каноническое значение ("ROLE_DIRECTOR").
func ParseWireRole(s string) (Role, error) {
	if !strings.HasPrefix(s, wireRolePrefix) {
		return "", fmt.Errorf("models.ParseWireRole: %q: %w", s, ErrUnknownRole)
	}

	r := Role(strings.TrimPrefix(s, wireRolePrefix))
	w, err := r.Wire()
	if err != nil || w != s {
		return "", fmt.Errorf("models.ParseWireRole: %q: %w", s, ErrUnknownRole)
	}

	return r, nil
}

// HasRole проверяет наличие роли в наборе.
func HasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}

	return false
}

// NormalizeRoles возвращает отсортированный набор ролей без дубликатов
// в порядке AllRoles. Неизвестные роли приводят к ошибке.
func NormalizeRoles(roles []Role) ([]Role, error) {
	seen := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("models.NormalizeRoles: %q: %w", string(r), ErrUnknownRole)
		}
		seen[r] = struct{}{}
	}

	out := make([]Role, 0, len(seen))
	for _, r := range AllRoles {
		if _, ok := seen[r]; ok {
			out = append(out, r)
		}
	}

	return out, nil
}

// RoleStrings конвертирует роли в строки тегов (для JSON-ответов).
func RoleStrings(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}

	return out
}
