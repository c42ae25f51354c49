package querier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTenantPath(t *testing.T) {
	if got := TenantPath("", "/recipe/signinup"); got != "/public/recipe/signinup" {
		t.Fatalf("expected public tenant default, got %q", got)
	}
	if got := TenantPath("t1", "/recipe/signinup"); got != "/t1/recipe/signinup" {
		t.Fatalf("unexpected path: %q", got)
	}
}

func TestSendGetSetsAPIKeyAndQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "secret-key" {
			t.Fatalf("missing api-key header")
		}
		if r.URL.Query().Get("email") != "a@b.com" {
			t.Fatalf("missing query param, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer server.Close()

	q := New(Config{BaseURL: server.URL, APIKey: "secret-key"})

	var out struct {
		Status string `json:"status"`
	}
	if err := q.SendGet(context.Background(), "/recipe/user", map[string]string{"email": "a@b.com"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != "OK" {
		t.Fatalf("unexpected status: %q", out.Status)
	}
}

func TestSendPostDecodesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("missing content type")
		}
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer server.Close()

	q := New(Config{BaseURL: server.URL})

	err := q.SendPost(context.Background(), "/recipe/signinup", map[string]string{"email": "a@b.com"}, nil)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
}
