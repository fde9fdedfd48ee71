package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jason-s-yu/chesslive/internal/auth"
	"github.com/jason-s-yu/chesslive/internal/game"
	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the full stack over in-memory storage.
func newTestServer(t *testing.T) (*httptest.Server, *game.MemoryStore) {
	t.Helper()
	logger, _ := test.NewNullLogger()

	store := game.NewMemoryStore()
	issuer, err := auth.NewTokenIssuer(time.Hour)
	require.NoError(t, err)
	resolver := auth.NewResolver(issuer, store)

	reg := prometheus.NewRegistry()
	registry := session.NewRegistry()
	metrics := session.NewMetrics(reg, registry)
	out := session.NewBroadcaster(registry, logger, metrics, time.Second)
	d := session.NewDispatcher(resolver, store, game.ChessRules{}, registry, out, logger,
		session.WithMetrics(metrics),
		session.WithResultRecorder(store),
	)

	srv := &Server{
		Users:      store,
		Games:      store,
		Tokens:     issuer,
		Auth:       resolver,
		Dispatcher: d,
		Logger:     logger,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// register creates an account and returns its token.
func register(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/user/create", "", map[string]string{"username": username, "password": username + "-pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out createUserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.AuthToken)
	return out.AuthToken
}

func createGame(t *testing.T, ts *httptest.Server, token, name string) int {
	t.Helper()
	resp := postJSON(t, ts.URL+"/game/create", token, map[string]string{"gameName": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out createGameResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.GameID
}
