package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/pkg/principal"
	"github.com/unicauca/auth-service/internal/service"
	apierrors "github.com/unicauca/auth-service/internal/transport/http/errors"
)

// fakeAuth - AuthService, возвращающий заранее заданные ошибки.
type fakeAuth struct {
	err       error
	gotTarget int64
	gotEmail  string
}

func (f *fakeAuth) Login(context.Context, string, string) (*models.LoginResult, error) {
	return nil, f.err
}

func (f *fakeAuth) Refresh(context.Context, string) (*models.RefreshResult, error) {
	return nil, f.err
}

func (f *fakeAuth) Logout(context.Context, string) error { return f.err }

func (f *fakeAuth) LogoutAllAs(_ context.Context, _ *models.Principal, id int64) error {
	f.gotTarget = id
	return f.err
}

func (f *fakeAuth) Register(context.Context, string, string, []string) (*models.Account, error) {
	return nil, f.err
}

func (f *fakeAuth) HasRole(context.Context, int64, string) (bool, error) { return false, f.err }

func (f *fakeAuth) AccountIDByEmail(_ context.Context, email string) (int64, error) {
	f.gotEmail = email
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var env apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestRefresh_AccountNotFound_Is401(t *testing.T) {
	h := New(&fakeAuth{err: fmt.Errorf("service.auth.Refresh: %w", service.ErrAccountNotFound)})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"x"}`))
	h.Refresh(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_refresh_token", decodeErr(t, rr).Error.Code)
}

func TestHandlers_ServiceErrorsMapped(t *testing.T) {
	boom := errors.New("db down")

	tcs := []struct {
		name     string
		call     func(h *Handlers, w http.ResponseWriter, r *http.Request)
		body     string
		err      error
		wantCode int
	}{
		{"login internal", (*Handlers).Login, `{"email":"a@b.co","password":"123456"}`, boom, http.StatusInternalServerError},
		{"logout internal", (*Handlers).Logout, `{"refresh_token":"x"}`, boom, http.StatusInternalServerError},
		{"register conflict", (*Handlers).Register, `{"email":"a@b.co","password":"123456"}`, service.ErrEmailTaken, http.StatusConflict},
		{"deadline", (*Handlers).Login, `{"email":"a@b.co","password":"123456"}`, context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"login bad json", (*Handlers).Login, `{`, nil, http.StatusBadRequest},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			h := New(&fakeAuth{err: tc.err})
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tc.body))
			tc.call(h, rr, req)
			require.Equal(t, tc.wantCode, rr.Code)
		})
	}
}

func TestLogoutAll_BodyHandling(t *testing.T) {
	p := &models.Principal{AccountID: 5, Roles: []models.Role{models.RoleStudent}}

	tcs := []struct {
		name       string
		body       string
		wantCode   int
		wantTarget int64
	}{
		{"empty body", "", http.StatusNoContent, 0},
		{"explicit id", `{"account_id":9}`, http.StatusNoContent, 9},
		{"negative id", `{"account_id":-1}`, http.StatusBadRequest, 0},
		{"unknown field", `{"user":1}`, http.StatusBadRequest, 0},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeAuth{}
			h := New(f)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/sessions/logout-all", strings.NewReader(tc.body))
			req = req.WithContext(principal.Into(req.Context(), p))

			h.LogoutAll(rr, req)

			require.Equal(t, tc.wantCode, rr.Code)
			require.Equal(t, tc.wantTarget, f.gotTarget)
		})
	}
}

func TestLogoutAll_NoPrincipal(t *testing.T) {
	h := New(&fakeAuth{})
	rr := httptest.NewRecorder()
	h.LogoutAll(rr, httptest.NewRequest(http.MethodPost, "/sessions/logout-all", nil))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe(t *testing.T) {
	h := New(&fakeAuth{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(principal.Into(req.Context(), &models.Principal{
		AccountID: 3,
		Roles:     []models.Role{models.RoleStudent, models.RoleDirector},
	}))

	h.Me(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"account_id":3,"roles":["STUDENT","DIRECTOR"]}`, rr.Body.String())
}

func TestAccountID_EmailParams(t *testing.T) {
	tcs := []struct {
		name      string
		target    string
		wantCode  int
		wantEmail string
	}{
		{"email", "/auth/account-id?email=a@unicauca.edu.co", http.StatusOK, "a@unicauca.edu.co"},
		{"userEmail alias", "/auth/account-id?userEmail=b@unicauca.edu.co", http.StatusOK, "b@unicauca.edu.co"},
		{"email wins", "/auth/account-id?email=a@unicauca.edu.co&userEmail=b@unicauca.edu.co", http.StatusOK, "a@unicauca.edu.co"},
		{"missing", "/auth/account-id", http.StatusBadRequest, ""},
		{"blank", "/auth/account-id?userEmail=%20", http.StatusBadRequest, ""},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			fa := &fakeAuth{}
			rr := httptest.NewRecorder()
			New(fa).AccountID(rr, httptest.NewRequest(http.MethodGet, tc.target, nil))

			require.Equal(t, tc.wantCode, rr.Code)
			require.Equal(t, tc.wantEmail, fa.gotEmail)
			if tc.wantCode == http.StatusOK {
				var out map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
				require.Equal(t, float64(7), out["account_id"])
			}
		})
	}
}
