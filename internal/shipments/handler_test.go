package shipments

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
	"github.com/stockdesk/stockdesk/internal/dictionary"
	"github.com/stockdesk/stockdesk/internal/shared"
	"github.com/stockdesk/stockdesk/internal/view"
)

type shipmentsFixture struct {
	router  chi.Router
	session *shared.Session
	calls   *[]string
}

// newShipmentsFixture serves shipment 1 as a draft and shipment 2 as signed.
func newShipmentsFixture(t *testing.T) shipmentsFixture {
	t.Helper()

	calls := &[]string{}
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/shipments":
			_, _ = w.Write([]byte(`[
				{"id":1,"number":"SHP-001","clientId":30,"date":"2026-03-10","state":"DRAFT","items":[{"id":7,"resourceId":10,"unitId":20,"quantity":5}]},
				{"id":2,"number":"SHP-002","clientId":30,"date":"2026-03-11","state":"SIGNED","items":[]}
			]`))
		case r.Method == http.MethodGet && r.URL.Path == "/shipments/numbers":
			_, _ = w.Write([]byte(`["SHP-001","SHP-002"]`))
		case r.Method == http.MethodGet && r.URL.Path == "/shipments/1":
			_, _ = w.Write([]byte(`{"id":1,"number":"SHP-001","clientId":30,"date":"2026-03-10","state":"DRAFT","items":[]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/shipments/2":
			_, _ = w.Write([]byte(`{"id":2,"number":"SHP-002","clientId":30,"date":"2026-03-11","state":"SIGNED","items":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/shipments/1/sign":
			_, _ = w.Write([]byte(`{"id":1,"number":"SHP-001","clientId":30,"date":"2026-03-10","state":"SIGNED","items":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/shipments/2/revoke":
			_, _ = w.Write([]byte(`{"id":2,"number":"SHP-002","clientId":30,"date":"2026-03-11","state":"DRAFT","items":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/shipments":
			_, _ = w.Write([]byte(`{"id":3,"number":"SHP-003","clientId":30,"date":"2026-03-14","state":"DRAFT","items":[]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/shipments/1":
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/resources" || r.URL.Path == "/resources/active":
			_, _ = w.Write([]byte(`[{"id":10,"name":"Steel","state":"ACTIVE"}]`))
		case r.URL.Path == "/units" || r.URL.Path == "/units/active":
			_, _ = w.Write([]byte(`[{"id":20,"name":"Kilogram","state":"ACTIVE"}]`))
		case r.URL.Path == "/clients" || r.URL.Path == "/clients/active":
			_, _ = w.Write([]byte(`[{"id":30,"name":"Acme","state":"ACTIVE"}]`))
		case r.URL.Path == "/clients/30":
			_, _ = w.Write([]byte(`{"id":30,"name":"Acme","state":"ACTIVE"}`))
		default:
			http.NotFound(w, r)
		}
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
	handler := NewHandler(logger,
		NewService(NewHTTPRepository(api)),
		dictionary.NewHTTPRepository(api, "/resources"),
		dictionary.NewHTTPRepository(api, "/units"),
		dictionary.NewHTTPRepository(api, "/clients"),
		templates, csrf)

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
	router.Route("/shipments", handler.MountRoutes)

	return shipmentsFixture{router: router, session: sess, calls: calls}
}

func (fx shipmentsFixture) post(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func (fx shipmentsFixture) called(call string) bool {
	for _, c := range *fx.calls {
		if c == call {
			return true
		}
	}
	return false
}

func TestShipmentsListShowsStates(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shipments", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "SHP-001")
	require.Contains(t, body, "SHP-002")
	require.Contains(t, body, "DRAFT")
	require.Contains(t, body, "SIGNED")
	require.Contains(t, body, "Acme")
}

func TestSignDraftShipment(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments/1/sign", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.True(t, fx.called("POST /shipments/1/sign"))

	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, shared.NoticeSuccess, notice.Kind)
	require.Equal(t, "Shipment signed", notice.Message)
}

func TestSignSignedShipmentWarns(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments/2/sign", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.False(t, fx.called("POST /shipments/2/sign"))

	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, shared.NoticeWarning, notice.Kind)
	require.Equal(t, "Only draft shipments can be signed", notice.Message)
}

func TestRevokeSignedShipment(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments/2/revoke", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.True(t, fx.called("POST /shipments/2/revoke"))
}

func TestRevokeDraftShipmentWarns(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments/1/revoke", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.False(t, fx.called("POST /shipments/1/revoke"))

	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, "Only signed shipments can be revoked", notice.Message)
}

func TestEditSignedShipmentRedirects(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shipments/2/edit", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, "Signed shipments cannot be edited", notice.Message)
}

func TestDeleteSignedShipmentWarns(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments/2/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.False(t, fx.called("DELETE /shipments/2"))

	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, "Signed shipments cannot be deleted", notice.Message)
}

func TestDeleteDraftShipment(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments/1/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.True(t, fx.called("DELETE /shipments/1"))
}

func TestNewShipmentFormPreselectsFirstClient(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shipments/new", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="30" selected`)
	require.Contains(t, rec.Body.String(), time.Now().Format("2006-01-02"))
}

func TestCreateShipmentRequiresClientAndItems(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments", url.Values{
		"action": {"save"},
		"number": {"SHP-009"},
		"date":   {"2026-03-14"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Client is required")
	require.Contains(t, rec.Body.String(), "At least 1 item is required")
	require.False(t, fx.called("POST /shipments"))
}

func TestCreateShipmentSucceeds(t *testing.T) {
	fx := newShipmentsFixture(t)

	rec := fx.post(t, "/shipments", url.Values{
		"action":           {"save"},
		"number":           {"SHP-009"},
		"client_id":        {"30"},
		"date":             {"2026-03-14"},
		"item_key":         {"k1"},
		"item_resource_id": {"10"},
		"item_unit_id":     {"20"},
		"item_quantity":    {"2"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.True(t, fx.called("POST /shipments"))

	notice := fx.session.PopNotice()
	require.NotNil(t, notice)
	require.Equal(t, "Shipment created", notice.Message)
}
