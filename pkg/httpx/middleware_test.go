package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coachhub/platform/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var staticAuth = httpx.AuthenticatorFunc(func(_ context.Context, token string) (httpx.Principal, error) {
	switch token {
	case "coach-token":
		return httpx.Principal{Subject: "u1", Email: "c@x.com", Role: "coach"}, nil
	case "admin-token":
		return httpx.Principal{Subject: "u2", Email: "a@x.com", Role: "admin"}, nil
	}
	return httpx.Principal{}, errors.New("bad token")
})

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := httpx.PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(p.Subject))
	})
}

func TestAuthnMiddleware(t *testing.T) {
	h := httpx.AuthnMiddleware(staticAuth)(whoami())

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "Bearer coach-token", http.StatusOK, "u1"},
		{"case insensitive scheme", "bearer coach-token", http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusUnauthorized {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), `Bearer error="invalid_token"`)
				require.Contains(t, rec.Body.String(), `"statusCode":401`)
			} else {
				require.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := httpx.Chain(whoami(), httpx.AuthnMiddleware(staticAuth), httpx.RequireRole("admin"))

	call := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/admin/users/x/active", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, call("admin-token").Code)

	rec := call("coach-token")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Insufficient role")

	require.Equal(t, http.StatusUnauthorized, call("nope").Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("a"), nil, mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email"`
	}
	decode := func(s string) (body, error) {
		var b body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(s))
		err := httpx.DecodeJSON(httptest.NewRecorder(), req, &b)
		return b, err
	}

	b, err := decode(`{"email":"a@x.com"}`)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", b.Email)

	for _, bad := range []string{``, `{`, `{"email":"a"}{"email":"b"}`, `{"other":1}`} {
		_, err := decode(bad)
		require.Error(t, err, bad)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteError(rec, http.StatusConflict, "Email already in use")

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"statusCode":409,"error":"Conflict","message":"Email already in use"}`, rec.Body.String())
}
