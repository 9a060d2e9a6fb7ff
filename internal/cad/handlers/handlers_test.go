package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cad-bridge/internal/cad/bridge"
	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/features"
	"cad-bridge/internal/cad/parts"
	"cad-bridge/internal/cad/script"
	"cad-bridge/internal/cad/service"
	"cad-bridge/internal/cad/sketch"
	"cad-bridge/internal/cad/view"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, start bool) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	b := bridge.New(bridge.Config{Interval: 5 * time.Millisecond}, nil, bridge.NewMetrics(reg))
	if start {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = b.Run(ctx)
			close(done)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})
		require.Eventually(t, b.Running, time.Second, time.Millisecond)
	}

	cadApp := document.NewApp()
	d := dispatch.New(cadApp, nil)
	f := features.New(d, nil)
	svc := service.New(service.Deps{
		Bridge:   b,
		App:      cadApp,
		Dispatch: d,
		Features: f,
		Sketches: sketch.NewBuilder(nil),
		Runner:   script.NewRunner(cadApp, d, f, nil),
		Library:  parts.NewLibrary(t.TempDir(), nil),
		Renderer: view.NewRenderer(view.Options{}),
	})

	app := fiber.New()
	Register(app, NewRPC(svc, nil), NewHealth(b), reg)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRPCRoundTrip(t *testing.T) {
	app := newApp(t, true)

	status, out := post(t, app, "/rpc/create_document", `{"name":"Doc"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"success": true, "document_name": "Doc"}, out)

	_, out = post(t, app, "/rpc/create_box", `{"doc_name":"Doc","name":"Box","length":4,"position":{"x":1}}`)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Box", out["object_name"])

	_, out = post(t, app, "/rpc/get_object", `{"doc_name":"Doc","obj_name":"Box"}`)
	require.Equal(t, true, out["success"])
	obj := out["object"].(map[string]any)
	placement := obj["Properties"].(map[string]any)["Placement"].(map[string]any)
	assert.EqualValues(t, 1, placement["Base"].(map[string]any)["x"])
}

func TestRPCReportsFailuresInPayload(t *testing.T) {
	app := newApp(t, true)

	status, out := post(t, app, "/rpc/get_objects", `{"doc_name":"Missing"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "Document 'Missing' not found")

	status, out = post(t, app, "/rpc/ping", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, out["success"])

	status, out = post(t, app, "/rpc/ping", ``)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["success"])
}

func TestRPCStaysJSONForOversizedGeometry(t *testing.T) {
	app := newApp(t, true)
	post(t, app, "/rpc/create_document", `{"name":"Doc"}`)
	_, out := post(t, app, "/rpc/create_box", `{"doc_name":"Doc","name":"Huge","length":1e200,"width":1e200,"height":1e200}`)
	require.Equal(t, true, out["success"])

	status, out := post(t, app, "/rpc/get_objects", `{"doc_name":"Doc"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["success"])
	assert.Len(t, out["objects"], 1)
}

func TestRPCEchoesRequestID(t *testing.T) {
	app := newApp(t, true)
	req := httptest.NewRequest(http.MethodPost, "/rpc/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestMethodsListing(t *testing.T) {
	app := newApp(t, true)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rpc", nil))
	require.NoError(t, err)
	var out struct {
		Methods []string `json:"methods"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Methods, "add_sketch_geometry")
	assert.Contains(t, out.Methods, "execute_code")
}

func TestHealthProbes(t *testing.T) {
	stopped := newApp(t, false)
	resp, err := stopped.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = stopped.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	running := newApp(t, true)
	resp, err = running.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newApp(t, true)
	post(t, app, "/rpc/list_documents", `{}`)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "cadbridge_bridge_tasks_submitted_total 1")
}
