package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/unicauca/auth-service/internal/metrics"
	"github.com/unicauca/auth-service/internal/models"
	logctx "github.com/unicauca/auth-service/internal/pkg/log"
	"github.com/unicauca/auth-service/internal/pkg/principal"
	"github.com/unicauca/auth-service/internal/token"
)

// TokenDecoder проверяет access-токен. Реализуется *token.Codec.
type TokenDecoder interface {
	Decode(tokenStr string) (*token.Claims, error)
}

// PublicRoutes - предикат публичных путей: точное совпадение, префикс или суффикс.
type PublicRoutes struct {
	Exact    []string
	Prefixes []string
	Suffixes []string
}

// DefaultPublicRoutes - маршруты, доступные без аутентификации.
func DefaultPublicRoutes() PublicRoutes {
	return PublicRoutes{
		Exact:    []string{"/favicon.ico", "/livez", "/healthz", "/metrics"},
		Prefixes: []string{"/auth/"},
		Suffixes: []string{".css", ".js", ".gif", ".png", ".jpg", ".ico"},
	}
}

// Match сообщает, публичен ли путь.
func (p PublicRoutes) Match(path string) bool {
	for _, e := range p.Exact {
		if path == e {
			return true
		}
	}
	for _, pre := range p.Prefixes {
		if strings.HasPrefix(path, pre) {
			return true
		}
	}
	for _, suf := range p.Suffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	return false
}

// Authenticate - шлюз аутентификации запроса.
//
// Для непубличного пути с заголовком "Authorization: Bearer <token>" декодирует
// токен и кладёт models.Principal в контекст. Любая проблема (нет заголовка,
// чужая схема, плохой токен) только логируется: запрос идёт дальше
// неаутентифицированным, отказ выносит Authorize. Сам ответ не пишет никогда.
func Authenticate(dec TokenDecoder, public PublicRoutes, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			lg := logctx.From(ctx)

			if public.Match(r.URL.Path) {
				m.Gate("public")
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				lg.Debug("gate_no_credentials", slog.String("path", r.URL.Path))
				m.Gate("anonymous")
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
				lg.Warn("gate_unsupported_scheme", slog.String("path", r.URL.Path))
				m.Gate("anonymous")
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimSpace(auth[len(prefix):])
			claims, err := dec.Decode(raw)
			if err != nil {
				kind := token.Kind(err)
				lg.Warn("gate_token_rejected",
					slog.String("path", r.URL.Path),
					slog.String("kind", kind),
				)
				m.Gate(kind)
				next.ServeHTTP(w, r)
				return
			}

			p := &models.Principal{AccountID: claims.AccountID, Roles: claims.Roles}
			ctx = principal.Into(ctx, p)
			ctx = logctx.With(ctx, slog.Int64("account_id", p.AccountID))
			m.Gate("authenticated")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
