package middleware

import (
	"log/slog"
	"net/http"

	"github.com/unicauca/auth-service/internal/models"
	logctx "github.com/unicauca/auth-service/internal/pkg/log"
	"github.com/unicauca/auth-service/internal/pkg/principal"
	apierrors "github.com/unicauca/auth-service/internal/transport/http/errors"
)

// Decision - итог проверки политики доступа.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

type policyKind int

const (
	policyPublic policyKind = iota
	policyAuthenticated
	policyRole
)

// Policy - правило доступа к маршруту.
type Policy struct {
	kind policyKind
	role models.Role
}

// Public - доступ без аутентификации.
func Public() Policy { return Policy{kind: policyPublic} }

// AuthenticatedAny - любой аутентифицированный принципал.
func AuthenticatedAny() Policy { return Policy{kind: policyAuthenticated} }

// RequiresRole - аутентифицированный принципал с ролью r.
func RequiresRole(r models.Role) Policy { return Policy{kind: policyRole, role: r} }

// Decide применяет политику к принципалу (nil - запрос без аутентификации).
func Decide(policy Policy, p *models.Principal) Decision {
	switch policy.kind {
	case policyPublic:
		return Allow
	case policyAuthenticated:
		if p == nil {
			return Unauthenticated
		}
		return Allow
	case policyRole:
		if p == nil {
			return Unauthenticated
		}
		if !p.HasRole(policy.role) {
			return Forbidden
		}
		return Allow
	default:
		return Forbidden
	}
}

// Authorize отказывает запросу по политике: Unauthenticated -> 401, Forbidden -> 403.
func Authorize(policy Policy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := principal.From(r.Context())

			switch d := Decide(policy, p); d {
			case Allow:
				next.ServeHTTP(w, r)
			case Unauthenticated:
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
			default:
				logctx.From(r.Context()).Warn("access_denied",
					slog.String("path", r.URL.Path),
					slog.String("decision", d.String()),
					slog.String("required_role", string(policy.role)),
				)
				apierrors.WriteError(w, r, apierrors.ErrForbidden)
			}
		})
	}
}
