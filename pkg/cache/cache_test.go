package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get() = %v, %v, want miss", ok, err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	if _, ok, _ := c.Get(ctx, "doc:1"); ok {
		t.Error("Get() hit on empty cache")
	}
	if err := c.Set(ctx, "doc:1", []byte("rects"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok, err := c.Get(ctx, "doc:1")
	if err != nil || !ok || string(data) != "rects" {
		t.Errorf("Get() = %q, %v, %v, want rects", data, ok, err)
	}

	if err := c.Delete(ctx, "doc:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "doc:1"); ok {
		t.Error("Get() hit after Delete")
	}
	if err := c.Delete(ctx, "doc:1"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get() hit on expired entry")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Error("Get() miss on entry without ttl")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("{not json"), 0o644)

	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get() = %v, %v, want miss", ok, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("Get() hit after Clear")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	d1 := k.DocumentKey("abc", DocumentKeyOpts{Active: "#ffe100"})
	d2 := k.DocumentKey("abc", DocumentKeyOpts{Active: "#ff0000"})
	if d1 == d2 {
		t.Error("different filters produced the same document key")
	}
	if d1 != k.DocumentKey("abc", DocumentKeyOpts{Active: "#ffe100"}) {
		t.Error("DocumentKey() is not deterministic")
	}
	if !strings.HasPrefix(d1, "doc:") {
		t.Errorf("DocumentKey() = %q, want doc: prefix", d1)
	}

	a1 := k.ArtifactKey("snap", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("snap", ArtifactKeyOpts{Format: "png"})
	if a1 == a2 {
		t.Error("different formats produced the same artifact key")
	}
	if !strings.HasPrefix(a2, "artifact:png:") {
		t.Errorf("ArtifactKey() = %q, want artifact:png: prefix", a2)
	}
}

func TestScopedKeyer(t *testing.T) {
	k := NewScopedKeyer(nil, "tenant:")
	got := k.DocumentKey("abc", DocumentKeyOpts{})
	want := "tenant:" + NewDefaultKeyer().DocumentKey("abc", DocumentKeyOpts{})
	if got != want {
		t.Errorf("DocumentKey() = %q, want %q", got, want)
	}
}

func TestHashValue(t *testing.T) {
	h1, err := HashValue(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := HashValue(map[string]int{"a": 2})
	if h1 == h2 || len(h1) != 64 {
		t.Errorf("HashValue() = %q, %q", h1, h2)
	}
	if _, err := HashValue(func() {}); err == nil {
		t.Error("HashValue(func) error = nil")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	defer func() { retryDelay = 100 * time.Millisecond }()
	ctx := context.Background()
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, nil, 1, false},
		{"permanent", 1, permanent, 1, true},
		{"transient then ok", 1, Retryable(ErrUnavailable), 2, false},
		{"exhausted", 5, Retryable(ErrUnavailable), 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("RetryWithBackoff() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrUnavailable) })
	if err != context.Canceled {
		t.Errorf("RetryWithBackoff() error = %v, want context.Canceled", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) || !errors.Is(err, ErrUnavailable) {
		t.Errorf("Retryable() = %v, lost identity", err)
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable() true for unwrapped error")
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{"localhost:6379", "localhost:6379", false},
		{"redis://cache.internal:6380/2", "cache.internal:6380", false},
		{"", "", true},
		{"http://nope", "", true},
	}
	for _, tt := range tests {
		opts, err := redisOptions(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("redisOptions(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			continue
		}
		if err == nil && opts.Addr != tt.want {
			t.Errorf("redisOptions(%q).Addr = %q, want %q", tt.addr, opts.Addr, tt.want)
		}
	}
}
