package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestChecker(t *testing.T, tag string) (*Checker, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(map[string]string{"tag_name": tag})
	}))
	t.Cleanup(srv.Close)
	return &Checker{URL: srv.URL, Dir: t.TempDir(), Client: srv.Client()}, &hits
}

func TestCheck_SkippedInCI(t *testing.T) {
	t.Setenv("CI", "1")
	c, hits := newTestChecker(t, "v9.9.9")
	if latest, newer, err := c.Check(context.Background(), "1.0.0"); err != nil || latest != "" || newer {
		t.Fatalf("expected no-op in CI; got latest=%q newer=%v err=%v", latest, newer, err)
	}
	if *hits != 0 {
		t.Fatal("CI check must not hit the network")
	}
}

func TestCheck_OnlineThenCached(t *testing.T) {
	t.Setenv("CI", "")
	c, hits := newTestChecker(t, "v1.3.0")
	latest, newer, err := c.Check(context.Background(), "1.2.9")
	if err != nil {
		t.Fatal(err)
	}
	if latest != "1.3.0" || !newer {
		t.Fatalf("got latest=%q newer=%v", latest, newer)
	}
	if _, _, err := c.Check(context.Background(), "v1.3.0"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Fatalf("second check should use the cache, hits=%d", *hits)
	}
	if _, err := os.Stat(filepath.Join(c.Dir, cacheFileName)); err != nil {
		t.Fatalf("cache not written: %v", err)
	}
}

func TestCheck_UsesCacheWhenFresh(t *testing.T) {
	t.Setenv("CI", "")
	c, hits := newTestChecker(t, "v9.9.9")
	c.saveCache(cache{LastChecked: time.Now(), Latest: "1.2.3"})
	latest, newer, err := c.Check(context.Background(), "1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if latest != "1.2.3" || newer || *hits != 0 {
		t.Fatalf("got latest=%q newer=%v hits=%d", latest, newer, *hits)
	}
}

func TestCheck_StaleCacheRefreshes(t *testing.T) {
	t.Setenv("CI", "")
	c, hits := newTestChecker(t, "2.0.0")
	c.saveCache(cache{LastChecked: time.Now().Add(-48 * time.Hour), Latest: "1.0.0"})
	latest, newer, err := c.Check(context.Background(), "1.5.0")
	if err != nil {
		t.Fatal(err)
	}
	if latest != "2.0.0" || !newer || *hits != 1 {
		t.Fatalf("got latest=%q newer=%v hits=%d", latest, newer, *hits)
	}
}

func TestCheck_ServerErrorIsNotFatal(t *testing.T) {
	t.Setenv("CI", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()
	c := &Checker{URL: srv.URL, Dir: t.TempDir(), Client: srv.Client()}
	latest, newer, err := c.Check(context.Background(), "1.0.0")
	if err != nil || latest != "" || newer {
		t.Fatalf("got latest=%q newer=%v err=%v", latest, newer, err)
	}
}

func TestCheck_BadCurrentVersion(t *testing.T) {
	t.Setenv("CI", "")
	c, _ := newTestChecker(t, "1.0.0")
	if _, _, err := c.Check(context.Background(), "not-a-version"); err == nil {
		t.Fatal("expected error")
	}
}
