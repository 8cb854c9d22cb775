package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/portalmap/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "artifact:x"); hit {
		t.Fatal("empty cache hit")
	}
	if err := c.Set(ctx, "artifact:x", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "artifact:x")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "artifact:x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:x"); hit {
		t.Error("hit after delete")
	}
	if err := c.Delete(ctx, "artifact:x"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("%d entries left in cache dir", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("len = %d, want 64", len(h1))
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	a := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", Width: 1280})
	b := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", Width: 1100})
	c := k.ArtifactKey("other", ArtifactKeyOpts{Format: "svg", Width: 1280})
	if a == b || a == c {
		t.Error("keys must differ with options and descriptor hash")
	}
	if !strings.HasPrefix(a, "artifact:") {
		t.Errorf("key %q lacks type prefix", a)
	}

	scoped := NewScopedKeyer(nil, "prod:")
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", Width: 1280}); got != "prod:"+a {
		t.Errorf("scoped key = %q", got)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	base := errors.New("boom")
	err := Retryable(base)
	if !IsRetryable(err) || !errors.Is(err, base) {
		t.Error("wrapped error should be retryable and unwrap to base")
	}
	if err.Error() != "boom" {
		t.Errorf("message = %q", err.Error())
	}
	if IsRetryable(base) {
		t.Error("plain error is not retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}

	permanent := errors.New("permanent")
	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return permanent })
	if err != permanent || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(permanent) })
	if !errors.Is(err, permanent) || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = RetryWithBackoff(cctx, func() error { return Retryable(permanent) })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type recordingHooks struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, s)
}

func (h *recordingHooks) OnCacheHit(_ context.Context, k string)        { h.add("hit " + k) }
func (h *recordingHooks) OnCacheMiss(_ context.Context, k string)       { h.add("miss " + k) }
func (h *recordingHooks) OnCacheSet(_ context.Context, k string, _ int) { h.add("set " + k) }

func TestObserved(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	c := Observed(fc)

	c.Get(ctx, "artifact:1")
	c.Set(ctx, "artifact:1", []byte("x"), 0)
	c.Get(ctx, "artifact:1")

	want := []string{"miss artifact", "set artifact", "hit artifact"}
	if strings.Join(hooks.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{})
	if err != nil {
		t.Fatalf("Open none: %v", err)
	}
	c.Close()

	dir := t.TempDir()
	c, err = Open(ctx, Config{Backend: BackendFile, Dir: dir})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("file backend did not store")
	}

	if _, err := Open(ctx, Config{Backend: "memcached"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestKeyType(t *testing.T) {
	tests := map[string]string{
		"artifact:abc": "artifact",
		"plain":        "plain",
		":odd":         ":odd",
	}
	for in, want := range tests {
		if got := keyType(in); got != want {
			t.Errorf("keyType(%q) = %q, want %q", in, got, want)
		}
	}
}
