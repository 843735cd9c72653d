package mockblob_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shpitdev/schema-testgen/internal/mockblob"
)

func TestObjectLifecycle(t *testing.T) {
	t.Parallel()
	mock := mockblob.New("testcases")
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	put, err := http.NewRequest(http.MethodPut, srv.URL+"/testcases/cases.json", bytes.NewReader([]byte(`{"a":1}`)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(put)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("put status: %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/testcases/cases.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != `{"a":1}` {
		t.Fatalf("get: status=%d body=%q", resp.StatusCode, b)
	}

	del, _ := http.NewRequest(http.MethodDelete, srv.URL+"/testcases/cases.json", nil)
	resp, err = http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/testcases/cases.json")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestAuthorizationEnforcement(t *testing.T) {
	t.Parallel()
	mock := mockblob.New("testcases")
	mock.RequireBearerToken("tok")
	mock.Seed("cases.json", []byte("x"))
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/testcases/cases.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/testcases/cases.json", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get with token: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestUnknownContainerAndUnsafeNames(t *testing.T) {
	t.Parallel()
	mock := mockblob.New("testcases")
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	for _, path := range []string{"/other/cases.json", "/testcases/", "/testcases/a/../b"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("path %s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}
