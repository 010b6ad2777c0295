package web

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/kotrzina/skolmaten/pkg/prometheus"
	"github.com/kotrzina/skolmaten/pkg/scheduler"
	"github.com/kotrzina/skolmaten/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct {
	status scheduler.Status
}

func (f fakeStatus) Status() scheduler.Status {
	return f.status
}

func createServer(t *testing.T, storage store.Storage) *httptest.Server {
	t.Helper()

	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	status := fakeStatus{status: scheduler.Status{
		Sources:     []config.Source{{Name: "Svenstorps förskola", Slug: "svenstorps-forskola"}},
		Interval:    "1h0m0s",
		Weeks:       2,
		Cycles:      1,
		LastCycleID: "3f1c",
		LastCycleAt: "2024-03-04T11:30:00Z",
	}}

	monitor := prometheus.New()
	monitor.CyclesTotal.Inc()

	srv := httptest.NewServer(NewRouter(NewHandlerRepository(status, storage, monitor, logger)))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec,noctx
	require.NoError(t, err)
	defer resp.Body.Close() //nolint: errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHandlers_Menu(t *testing.T) {
	storage := store.NewFakeStore()
	require.NoError(t, storage.SetSnapshot(store.Snapshot{
		Slug:       "svenstorps-forskola",
		Name:       "Svenstorps förskola",
		EntityID:   "sensor.skolmaten_svenstorps_forskola",
		State:      "Köttbullar",
		Attributes: map[string]interface{}{"courses_count": 1},
		Published:  true,
		UpdatedAt:  time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC),
	}))
	srv := createServer(t, storage)

	code, body := get(t, srv.URL+"/api/menu/svenstorps-forskola")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{
		"slug": "svenstorps-forskola",
		"name": "Svenstorps förskola",
		"entity_id": "sensor.skolmaten_svenstorps_forskola",
		"state": "Köttbullar",
		"attributes": {"courses_count": 1},
		"degraded": false,
		"published": true,
		"updated_at": "2024-03-04T11:30:00Z"
	}`, body)

	code, body = get(t, srv.URL+"/api/menu")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"slug":"svenstorps-forskola"`)

	code, _ = get(t, srv.URL+"/api/menu/unknown-school")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandlers_EmptyStore(t *testing.T) {
	srv := createServer(t, store.NewFakeStore())

	code, body := get(t, srv.URL+"/api/menu")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, body)

	code, body = get(t, srv.URL+"/api/events")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, body)
}

func TestHandlers_Status(t *testing.T) {
	srv := createServer(t, store.NewFakeStore())

	code, body := get(t, srv.URL+"/api/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{
		"sources": [{"name": "Svenstorps förskola", "slug": "svenstorps-forskola"}],
		"interval": "1h0m0s",
		"weeks": 2,
		"cycles": 1,
		"last_cycle_id": "3f1c",
		"last_cycle_at": "2024-03-04T11:30:00Z",
		"last_cycle_took": ""
	}`, body)

	code, body = get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"is_ok":true}`, body)
}

func TestHandlers_Metrics(t *testing.T) {
	srv := createServer(t, store.NewFakeStore())

	code, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "menu_cycles_total 1")
}

func TestStartServer(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- StartServer(ctx, NewRouter(NewHandlerRepository(fakeStatus{}, store.NewFakeStore(), prometheus.New(), logger)), 0, logger)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
