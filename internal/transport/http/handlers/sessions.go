package handlers

import (
	"net/http"

	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/pkg/principal"
	apierrors "github.com/unicauca/auth-service/internal/transport/http/errors"
)

// LogoutAll отзывает все refresh-токены аккаунта. Пустое тело или account_id=0 -
// аккаунт вызывающего; чужой аккаунт требует роли DIRECTOR.
func (h *Handlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.From(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in logoutAllRequest
	if err := decodeOptional(r, &in); err != nil || in.AccountID < 0 {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err := h.Auth.LogoutAllAs(r.Context(), p, in.AccountID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.From(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{AccountID: p.AccountID, Roles: models.RoleStrings(p.Roles)})
}

// Ping - ответ для ролевых маршрутов-проверок (/director/ping, /coordinator/ping).
func (h *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pingResponse{OK: true})
}
