package httpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAPI(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/capture/{page}", func(w http.ResponseWriter, r *http.Request) {
		page := r.PathValue("page")
		if page == "viewer" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"capture: unknown page"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"abc","page":"` + page + `","width":4,"height":4,"url":"/photos/abc","smart":"` + r.URL.Query().Get("smart") + `"}`))
	})
	mux.HandleFunc("GET /photos/abc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff})
	})
	released := false
	mux.HandleFunc("DELETE /photos/abc", func(w http.ResponseWriter, r *http.Request) {
		if released {
			w.Write([]byte(`{"released":false}`))
			return
		}
		released = true
		w.Write([]byte(`{"released":true}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/", 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestClient_CaptureDownloadRelease(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	p, err := c.Capture(ctx, "react-camera", true)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if p.Page != "react-camera" || p.URL != "/photos/abc" {
		t.Errorf("photo = %+v", p)
	}

	data, err := c.Download(ctx, p.URL)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(data) != 3 {
		t.Errorf("downloaded %d bytes, want 3", len(data))
	}

	for i, want := range []bool{true, false} {
		got, err := c.Release(ctx, p.URL)
		if err != nil {
			t.Fatalf("Release() error = %v", err)
		}
		if got != want {
			t.Errorf("release #%d = %v, want %v", i+1, got, want)
		}
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestAPI(t)

	_, err := c.Capture(context.Background(), "viewer", false)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "capture: unknown page" {
		t.Errorf("apiErr = %+v", apiErr)
	}

	if _, err := c.Download(context.Background(), "/photos/missing"); err == nil {
		t.Error("Download of a missing photo should fail")
	}
}
