package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testClient() *Client {
	c := New()
	c.initialBackoff = time.Millisecond
	return c
}

func TestFetch_HTTPRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("voxels"))
	}))
	defer srv.Close()

	data, err := testClient().Fetch(context.Background(), srv.URL+"/a.nii")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "voxels" || calls.Load() != 3 {
		t.Errorf("data=%q calls=%d", data, calls.Load())
	}
}

func TestFetch_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := testClient().Fetch(context.Background(), srv.URL+"/missing.nii"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFetch_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	c := testClient()
	c.maxBytes = 10
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected size error")
	}
}

func TestFetch_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.nii")
	if err := os.WriteFile(path, []byte("local"), 0600); err != nil {
		t.Fatal(err)
	}
	c := testClient()
	for _, uri := range []string{path, "file://" + path} {
		data, err := c.Fetch(context.Background(), uri)
		if err != nil || string(data) != "local" {
			t.Errorf("Fetch(%q) = %q, %v", uri, data, err)
		}
	}
	if _, err := c.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.nii")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFetchAll_ReportsEveryURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.nii" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/slow.nii" {
			time.Sleep(50 * time.Millisecond)
		}
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	uris := []string{srv.URL + "/slow.nii", srv.URL + "/fast.nii", srv.URL + "/bad.nii"}
	var mu sync.Mutex
	var got []string
	var failed int
	err := testClient().FetchAll(context.Background(), uris, func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, r.URI)
		if r.Err != nil {
			failed++
		}
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 3 || failed != 1 {
		t.Fatalf("results = %v failed = %d", got, failed)
	}
	if got[len(got)-1] != srv.URL+"/slow.nii" {
		t.Errorf("slow download should finish last, order = %v", got)
	}
	sort.Strings(got)
	sorted := append([]string(nil), uris...)
	sort.Strings(sorted)
	for i := range got {
		if got[i] != sorted[i] {
			t.Errorf("missing result for %s", sorted[i])
		}
	}
}
