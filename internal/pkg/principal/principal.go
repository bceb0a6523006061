// principal переносит models.Principal через context.Context запроса.
// Кладёт его только шлюз аутентификации; читают решатель авторизации и хендлеры.
package principal

import (
	"context"

	"github.com/unicauca/auth-service/internal/models"
)

type ctxKey struct{}

// Into кладёт принципала в контекст. nil не сохраняется.
func Into(ctx context.Context, p *models.Principal) context.Context {
	if p == nil {
		return ctx
	}

	return context.WithValue(ctx, ctxKey{}, p)
}

// From достаёт принципала из контекста; ok=false для неаутентифицированного запроса.
func From(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*models.Principal)
	if !ok || p == nil {
		return nil, false
	}

	return p, true
}
