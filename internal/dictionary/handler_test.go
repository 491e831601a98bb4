package dictionary

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockdesk/stockdesk/internal/backend"
	"github.com/stockdesk/stockdesk/internal/shared"
	"github.com/stockdesk/stockdesk/internal/view"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
}

type handlerFixture struct {
	router  chi.Router
	session *shared.Session
	calls   *[]recordedCall
}

func newHandlerFixture(t *testing.T, cfg Config, respond http.HandlerFunc) handlerFixture {
	t.Helper()

	calls := &[]recordedCall{}
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, recordedCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
		respond(w, r)
	}))
	t.Cleanup(stub.Close)

	mini := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := shared.NewSessionManager(redisClient, "stockdesk_session", "test-secret", time.Hour, 5*time.Second, false)
	csrf := shared.NewCSRFManager("test-secret")

	templates, err := view.NewEngine()
	require.NoError(t, err)

	api := backend.New(stub.URL, 5*time.Second, logger)
	handler := NewHandler(logger, NewHTTPRepository(api, cfg.BasePath), templates, csrf, cfg)

	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.ContextWithSession(r.Context(), sess)
			ctx = shared.ContextWithIdentity(ctx, shared.Identity{Name: "Administrator", Role: shared.RoleAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Route(cfg.BasePath, handler.MountRoutes)

	return handlerFixture{router: router, session: sess, calls: calls}
}

func unitsConfig() Config {
	return Config{Title: "Units of measure", Singular: "Unit", BasePath: "/units"}
}

func jsonResponse(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestListRendersRows(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), jsonResponse(`[
		{"id":1,"name":"Kilogram","state":"ACTIVE"},
		{"id":2,"name":"Litre","state":"ARCHIVED"}
	]`))

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/units", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Kilogram")
	require.Contains(t, rec.Body.String(), "Litre")
}

func TestListForwardsFilters(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), jsonResponse(`[]`))

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/units?q=kilo&state=ARCHIVED", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *fx.calls, 1)
	call := (*fx.calls)[0]
	require.Equal(t, http.MethodGet, call.Method)
	require.Equal(t, "/units", call.Path)
	require.Contains(t, call.Query, "q=kilo")
	require.Contains(t, call.Query, "state=ARCHIVED")
}

func TestCreateRejectsEmptyName(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), jsonResponse(`{}`))

	form := url.Values{"name": {"   "}}
	req := httptest.NewRequest(http.MethodPost, "/units", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Name is required")
	require.Empty(t, *fx.calls, "no backend call expected for an invalid form")
}

func TestCreatePostsPayloadAndRedirects(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), jsonResponse(`{"id":3,"name":"Piece","state":"ACTIVE"}`))

	form := url.Values{"name": {"Piece"}}
	req := httptest.NewRequest(http.MethodPost, "/units", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/units", rec.Header().Get("Location"))
	require.Len(t, *fx.calls, 1)
	require.Equal(t, http.MethodPost, (*fx.calls)[0].Method)

	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, shared.NoticeSuccess, notice.Kind)
	require.Equal(t, "Unit created", notice.Message)
}

func TestToggleArchivesActiveRow(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), jsonResponse(`{"id":1,"name":"Kilogram","state":"ARCHIVED"}`))

	form := url.Values{"row_state": {"ACTIVE"}}
	req := httptest.NewRequest(http.MethodPost, "/units/1/toggle", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, *fx.calls, 1)
	require.Equal(t, http.MethodPost, (*fx.calls)[0].Method)
	require.Equal(t, "/units/1/archive", (*fx.calls)[0].Path)
}

func TestToggleActivatesArchivedRow(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), jsonResponse(`{"id":1,"name":"Kilogram","state":"ACTIVE"}`))

	form := url.Values{"row_state": {"ARCHIVED"}}
	req := httptest.NewRequest(http.MethodPost, "/units/1/toggle", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, *fx.calls, 1)
	require.Equal(t, "/units/1/activate", (*fx.calls)[0].Path)
}

func TestConfirmDeleteDoesNotRemove(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), jsonResponse(`{"id":1,"name":"Kilogram","state":"ACTIVE"}`))

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/units/1/delete", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Kilogram")
	for _, call := range *fx.calls {
		require.NotEqual(t, http.MethodDelete, call.Method)
	}
}

func TestRemoveDeletesAndRedirects(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/units/1/delete", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, *fx.calls, 1)
	require.Equal(t, http.MethodDelete, (*fx.calls)[0].Method)
	require.Equal(t, "/units/1", (*fx.calls)[0].Path)
}

func TestBackendErrorBecomesNotice(t *testing.T) {
	fx := newHandlerFixture(t, unitsConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Unit is in use"}`))
	})

	form := url.Values{"name": {"Kilogram"}}
	req := httptest.NewRequest(http.MethodPost, "/units", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, shared.NoticeError, notice.Kind)
	require.Equal(t, "Unit is in use", notice.Message)
}
