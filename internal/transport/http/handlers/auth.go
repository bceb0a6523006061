package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/service"
	apierrors "github.com/unicauca/auth-service/internal/transport/http/errors"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	res, err := h.Auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginFromModel(res))
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	res, err := h.Auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		// Удалённый после выдачи токена аккаунт для клиента неотличим от плохого refresh-токена.
		if errors.Is(err, service.ErrAccountNotFound) {
			err = service.ErrTokenRefresh
		}
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshFromModel(res))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err := h.Auth.Logout(r.Context(), in.RefreshToken); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	acc, err := h.Auth.Register(r.Context(), in.Email, in.Password, in.Roles)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse{
		AccountID: acc.ID,
		Email:     acc.Email,
		Roles:     models.RoleStrings(acc.Roles),
	})
}

// ValidateRole отвечает {has_role}; неизвестная роль или аккаунт - false.
func (h *Handlers) ValidateRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	ok, err := h.Auth.HasRole(r.Context(), id, chi.URLParam(r, "role"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, hasRoleResponse{HasRole: ok})
}

func (h *Handlers) AccountID(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := strings.TrimSpace(q.Get("email"))
	if email == "" {
		// userEmail - имя параметра у существующих клиентов сервиса.
		email = strings.TrimSpace(q.Get("userEmail"))
	}
	if email == "" {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	id, err := h.Auth.AccountIDByEmail(r.Context(), email)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accountIDResponse{AccountID: id})
}
