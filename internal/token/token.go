// token выпускает и проверяет access-токены (компактный JWS, HS256).
//
// Codec не хранит изменяемого состояния и безопасен для конкурентного использования.
// Подпись проверяется до того, как хоть одному claim'у будет оказано доверие.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unicauca/auth-service/internal/config"
	"github.com/unicauca/auth-service/internal/models"
)

var (
	// ErrMalformedToken - неверная структура, подпись или содержимое claims.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken - exp <= now.
	ErrExpiredToken = errors.New("token expired")
	// ErrUnsupportedAlgorithm - алгоритм подписи отличен от HS256 (включая "none").
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	// ErrMissingClaim - отсутствует обязательный claim (sub, roles, iat, exp, iss, aud).
	ErrMissingClaim = errors.New("missing required claim")
	// ErrEmptySecret - не задан ключ подписи.
	ErrEmptySecret = errors.New("empty signing secret")
)

// Claims - проверенное содержимое access-токена.
type Claims struct {
	AccountID int64
	Roles     []models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// accessClaims - представление claims на проводе.
type accessClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Codec выпускает и декодирует access-токены.
type Codec struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience []string
	now      func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник времени, используемый в Decode.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт Codec из настроек auth.
func New(cfg config.AuthConfig, opts ...Option) (*Codec, error) {
	const op = "token.New"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}

	c := &Codec{
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.AccessTokenTTL,
		issuer:   cfg.Issuer,
		audience: append([]string(nil), cfg.Audience...),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// TTL возвращает время жизни выпускаемых токенов.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue подписывает токен для учётной записи. Роли дедуплицируются и упорядочиваются.
func (c *Codec) Issue(accountID int64, roles []models.Role, now time.Time) (string, time.Time, error) {
	const op = "token.Codec.Issue"

	norm, err := models.NormalizeRoles(roles)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	wire := make([]string, 0, len(norm))
	for _, r := range norm {
		w, err := r.Wire()
		if err != nil {
			return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
		}
		wire = append(wire, w)
	}

	exp := now.Add(c.ttl)
	claims := accessClaims{
		Roles: wire,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings(c.audience),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	// NumericDate округляет до секунд, возвращаем то же значение, что попало в токен.
	return signed, claims.ExpiresAt.Time, nil
}

// Decode проверяет подпись и срок действия и возвращает claims.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	const op = "token.Codec.Decode"

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if len(c.audience) > 0 {
		opts = append(opts, jwt.WithAudience(c.audience...))
	}

	var claims accessClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, c.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	if claims.Subject == "" || claims.IssuedAt == nil || claims.Roles == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingClaim)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	roles := make([]models.Role, 0, len(claims.Roles))
	for _, w := range claims.Roles {
		r, err := models.ParseWireRole(w)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
		}
		roles = append(roles, r)
	}

	roles, err = models.NormalizeRoles(roles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	return &Claims{
		AccountID: id,
		Roles:     roles,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, ErrUnsupportedAlgorithm
	}

	return c.secret, nil
}

// classify сводит ошибки jwt к собственным видам ошибок пакета.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return ErrUnsupportedAlgorithm
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrMissingClaim
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// jwt не знает такого alg.
		return ErrUnsupportedAlgorithm
	default:
		return ErrMalformedToken
	}
}

// Kind возвращает короткое имя вида ошибки для логов.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return "unsupported_alg"
	case errors.Is(err, ErrMissingClaim):
		return "missing_claim"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	default:
		return "unknown"
	}
}
