package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", 5*time.Second, nil), srv
}

func TestGetDecodesResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/units", r.URL.Path)
		assert.Equal(t, "state=ACTIVE", r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":1,"name":"kg","state":"ACTIVE"}]`)
	})

	var out []struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		State string `json:"state"`
	}
	err := client.Get(context.Background(), "/units", Params{"state": "ACTIVE"}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "kg", out[0].Name)
}

func TestNotFoundUserMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "", http.StatusNotFound)
	})

	err := client.Get(context.Background(), "/resources/5", nil, nil)
	require.Error(t, err)

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusNotFound, be.Status)
	assert.Equal(t, "Not found.", be.UserMessage)
}

func TestBadRequestPrefersBackendMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"Name is required"}`)
	})

	err := client.Post(context.Background(), "/units", map[string]string{"name": ""}, nil)
	require.Error(t, err)
	assert.Equal(t, "Name is required", UserMessage(err))
}

func TestConflictFallsBackToErrorField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"Unit is used"}`)
	})

	err := client.Delete(context.Background(), "/units/3")
	assert.Equal(t, "Unit is used", UserMessage(err))
}

func TestServerErrorGenericFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.Get(context.Background(), "/balances", nil, nil)
	assert.Equal(t, "Server error.", UserMessage(err))
}

func TestNetworkFailureUserMessage(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	err := client.Get(context.Background(), "/units", nil, nil)
	require.Error(t, err)
	assert.Equal(t, MsgNetwork, UserMessage(err))
}

func TestUserMessageForUnknownError(t *testing.T) {
	assert.Equal(t, MsgFailed, UserMessage(errors.New("boom")))
}
