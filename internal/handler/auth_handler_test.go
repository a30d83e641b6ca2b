package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/psga/internal/auth"
	"github.com/hitoshi/psga/internal/middleware"
	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/validate"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn    func(ctx context.Context, fields map[string]string) (*model.Session, error)
	loginFn       func(ctx context.Context, fields map[string]string) (*model.Session, error)
	logoutFn      func(ctx context.Context, sessionID string) error
	currentUserFn func(ctx context.Context, userID string) (*auth.CurrentUser, error)
}

func (m *mockAuthService) Register(ctx context.Context, fields map[string]string) (*model.Session, error) {
	return m.registerFn(ctx, fields)
}

func (m *mockAuthService) Login(ctx context.Context, fields map[string]string) (*model.Session, error) {
	return m.loginFn(ctx, fields)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*auth.CurrentUser, error) {
	return m.currentUserFn(ctx, userID)
}

var testAuthConfig = AuthHandlerConfig{CookieSecure: true, SessionMaxAge: 3600}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestAuthHandler_Register_SetsSessionCookie(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, fields map[string]string) (*model.Session, error) {
			if fields["email"] != "sinta@kampus.ac.id" {
				t.Errorf("email = %q", fields["email"])
			}
			return &model.Session{ID: "sess-1"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.Register(w, postForm("/auth/register", url.Values{"email": {"sinta@kampus.ac.id"}, "password": {"rahasia"}, "full_name": {"Sinta"}}))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	c := sessionCookie(w)
	if c == nil || c.Value != "sess-1" || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Errorf("cookie = %+v", c)
	}
}

func TestAuthHandler_Register_FieldErrors(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, fields map[string]string) (*model.Session, error) {
			errs := validate.NewFieldErrors()
			errs.Add("password", "Password minimal 6 karakter.")
			return nil, errs
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.Register(w, postForm("/auth/register", url.Values{"password": {"123"}}))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if sessionCookie(w) != nil {
		t.Error("session cookie must not be set")
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCookie bool
	}{
		{"success", nil, http.StatusOK, true},
		{"wrong password", model.NewInvalidCredentialsError(), http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, fields map[string]string) (*model.Session, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.Session{ID: "sess-2"}, nil
				},
			}
			h := NewAuthHandler(svc, testAuthConfig)

			w := httptest.NewRecorder()
			h.Login(w, postForm("/auth/login", url.Values{"email": {"a@b.id"}, "password": {"x"}}))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if (sessionCookie(w) != nil) != tt.wantCookie {
				t.Errorf("cookie = %+v, want present=%v", sessionCookie(w), tt.wantCookie)
			}
		})
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var deleted string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			deleted = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess-3"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if deleted != "sess-3" {
		t.Errorf("deleted = %q, want %q", deleted, "sess-3")
	}
	if c := sessionCookie(w); c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want expired", c)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAuthService{
		currentUserFn: func(ctx context.Context, userID string) (*auth.CurrentUser, error) {
			return &auth.CurrentUser{ID: userID, FullName: "Ani", Role: model.RoleUser}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := serve(http.MethodGet, "/auth/me", "/auth/me", h.Me, memberCaller, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"full_name":"Ani"`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	w = serve(http.MethodGet, "/auth/me", "/auth/me", h.Me, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
