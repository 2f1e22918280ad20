package hostfunc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPerformHTTPRequest_Basic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key = %q, want secret", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp := PerformHTTPRequest(context.Background(), HTTPRequest{
		Method:  "GET",
		URL:     srv.URL,
		Headers: map[string]string{"X-Api-Key": "secret"},
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestPerformHTTPRequest_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	resp := PerformHTTPRequest(context.Background(), HTTPRequest{URL: srv.URL},
		WithHTTPMaxBodySize(1024))

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if !resp.BodyTruncated {
		t.Error("expected BodyTruncated")
	}
	if len(resp.Body) != 1024 {
		t.Errorf("Body length = %d, want 1024", len(resp.Body))
	}
}

func TestPerformHTTPRequest_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	resp := PerformHTTPRequest(context.Background(), HTTPRequest{URL: srv.URL, TimeoutMs: 20})

	if resp.Error == nil {
		t.Fatal("expected timeout error")
	}
	if resp.Error.Code != "timeout" {
		t.Errorf("error code = %q, want timeout", resp.Error.Code)
	}
}

func TestPerformHTTPRequest_NoRedirectFollow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	follow := false
	resp := PerformHTTPRequest(context.Background(), HTTPRequest{
		URL:             srv.URL,
		FollowRedirects: &follow,
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if resp.StatusCode != http.StatusFound {
		t.Errorf("StatusCode = %d, want 302", resp.StatusCode)
	}
}

func TestPerformHTTPRequest_MissingURL(t *testing.T) {
	resp := PerformHTTPRequest(context.Background(), HTTPRequest{})
	if resp.Error == nil || resp.Error.Code != "invalid_request" {
		t.Errorf("expected invalid_request, got %+v", resp.Error)
	}
}
