package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/wricardo/multiworld-game/game/config"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

// writeBlankMap writes a w x h all-black (no traps) PNG to dir/name and
// returns its path.
func writeBlankMap(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return path
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestBootWorldServesConnectAndMove(t *testing.T) {
	dir := t.TempDir()
	writeBlankMap(t, dir, "alpha.png", 3, 3)

	settings := config.DefaultSettings()
	settings.ResourcesPath = dir

	spec := config.WorldSpec{Name: "alpha", Port: 0, Map: "alpha.png"}

	srv, err := bootWorld(context.Background(), spec, settings)
	if err != nil {
		t.Fatalf("bootWorld: %v", err)
	}

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/connect", map[string]interface{}{"vsid": nil, "username": "alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var conn struct {
		Success bool   `json:"success"`
		SID     string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&conn); err != nil {
		t.Fatalf("decode connect response: %v", err)
	}
	if !conn.Success || conn.SID == "" {
		t.Fatalf("connect response = %+v, want success with a sid", conn)
	}

	moveResp := postJSON(t, ts.URL+"/move", map[string]interface{}{"sid": conn.SID, "dx": 1, "dy": 0})
	defer moveResp.Body.Close()
	var move struct {
		Success bool `json:"success"`
		Moved   bool `json:"moved"`
		Alive   bool `json:"alive"`
	}
	if err := json.NewDecoder(moveResp.Body).Decode(&move); err != nil {
		t.Fatalf("decode move response: %v", err)
	}
	if !move.Success || !move.Moved || !move.Alive {
		t.Fatalf("move response = %+v, want moved+alive", move)
	}
}

func TestBootWorldVisualizedRequiresVSID(t *testing.T) {
	dir := t.TempDir()
	writeBlankMap(t, dir, "beta.png", 3, 3)

	settings := config.DefaultSettings()
	settings.ResourcesPath = dir

	spec := config.WorldSpec{Name: "beta", Port: 0, Map: "beta.png", Visualize: true}

	srv, err := bootWorld(context.Background(), spec, settings)
	if err != nil {
		t.Fatalf("bootWorld: %v", err)
	}

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/connect", map[string]interface{}{"vsid": nil, "username": "alice"})
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Success || body.Message != "This server requires VSID to connect. None present." {
		t.Fatalf("got %+v", body)
	}
}

func TestBootWorldMissingMapErrors(t *testing.T) {
	dir := t.TempDir()
	settings := config.DefaultSettings()
	settings.ResourcesPath = dir

	spec := config.WorldSpec{Name: "gamma", Port: 0, Map: "missing.png"}
	if _, err := bootWorld(context.Background(), spec, settings); err == nil {
		t.Fatal("bootWorld with missing map = nil error, want error")
	}
}

func TestBootWorldVisualizedExposesWebsocketRoute(t *testing.T) {
	dir := t.TempDir()
	writeBlankMap(t, dir, "delta.png", 3, 3)

	settings := config.DefaultSettings()
	settings.ResourcesPath = dir
	spec := config.WorldSpec{Name: "delta", Port: 0, Map: "delta.png", Visualize: true}

	srv, err := bootWorld(context.Background(), spec, settings)
	if err != nil {
		t.Fatalf("bootWorld: %v", err)
	}

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/ws", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /ws: %v", err)
	}
	defer resp.Body.Close()
	// A plain GET without upgrade headers is rejected by the websocket
	// upgrader; the route still must exist rather than fall through to the
	// ConnectionHandler's "Unknown request" path.
	if resp.StatusCode == http.StatusOK {
		t.Fatalf("expected the upgrader to reject a non-upgrade request, got 200")
	}
}

func TestBootWorldNotVisualizedHasNoWebsocketRoute(t *testing.T) {
	dir := t.TempDir()
	writeBlankMap(t, dir, "epsilon.png", 3, 3)

	settings := config.DefaultSettings()
	settings.ResourcesPath = dir
	spec := config.WorldSpec{Name: "epsilon", Port: 0, Map: "epsilon.png"}

	srv, err := bootWorld(context.Background(), spec, settings)
	if err != nil {
		t.Fatalf("bootWorld: %v", err)
	}

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatalf("GET /ws: %v", err)
	}
	defer resp.Body.Close()

	// With no /ws route registered, the request falls through to the
	// ConnectionHandler's catch-all, where a non-POST method always
	// yields a bare 404 regardless of path.
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
