package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/psga/internal/cache"
	"github.com/hitoshi/psga/internal/middleware"
	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

var (
	adminCaller  = &mutation.Caller{UserID: "11111111-1111-1111-1111-111111111111", Email: "admin@kampus.ac.id", Role: model.RoleAdmin}
	memberCaller = &mutation.Caller{UserID: "22222222-2222-2222-2222-222222222222", Email: "ani@kampus.ac.id", Role: model.RoleUser}
)

func newTestCache() *cache.ViewCache {
	return cache.NewViewCache(time.Minute, nil)
}

// serve はpatternに登録したハンドラーへ、callerとしてリクエストを送る。
func serve(method, pattern, target string, h http.HandlerFunc, caller *mutation.Caller, form url.Values) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if caller != nil {
		req = req.WithContext(middleware.ContextWithCaller(req.Context(), caller))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
