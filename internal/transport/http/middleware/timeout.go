package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/unicauca/auth-service/internal/metrics"
	logctx "github.com/unicauca/auth-service/internal/pkg/log"
)

// Timeout ограничивает время обработки запроса значением d, если у запроса
// ещё нет собственного deadline. Значение <=0 делает мидлвар no-op.
//
// Срабатывание своего deadline пишется в лог (request_deadline_exceeded)
// и учитывается в auth_http_timeouts_total.
func Timeout(d time.Duration, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logctx.From(ctx).Warn("request_deadline_exceeded",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Duration("timeout", d),
					slog.Duration("elapsed", time.Since(start)),
				)
				m.HTTPTimeout(r.Method)
			}
		})
	}
}
