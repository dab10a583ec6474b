package httputil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	type size struct{ Width, Height float64 }
	if err := c.Set("https://example.com/a.png", size{640, 480}); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var got size
	ok, err := c.Get("https://example.com/a.png", &got)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok {
		t.Fatal("Get() returned false for existing key")
	}
	if got != (size{640, 480}) {
		t.Errorf("Get() = %+v, want {640 480}", got)
	}
}

func TestCache_Miss(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	var result string
	ok, err := c.Get("missing", &result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("Get() returned true for missing key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 10*time.Millisecond)

	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var res string
	ok, err := c.Get("key", &res)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}

	time.Sleep(20 * time.Millisecond)

	ok, err = c.Get("key", &res)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("got error %v, want ErrExpired", err)
	}
	if ok {
		t.Error("Get() returned true for expired key")
	}
}

func TestCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewCache(dir, 0)
	if err := os.WriteFile(c.keyPath("bad"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	if ok, err := c.Get("bad", &v); ok || err == nil {
		t.Errorf("Get() = %v, %v; want false and a decode error", ok, err)
	}
}

func TestCache_KeyStability(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	p1 := c.keyPath("test")
	p2 := c.keyPath("test")
	if p1 != p2 {
		t.Error("path should be deterministic")
	}
	p3 := c.keyPath("other")
	if p1 == p3 {
		t.Error("different keys should produce different paths")
	}
}

func TestNewCache_DefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c, err := NewCache("", time.Hour)
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}

	base, err := os.UserCacheDir()
	if err != nil {
		t.Skip("no user cache directory")
	}
	want := filepath.Join(base, "tilegrid", "media")
	if c.Dir() != want {
		t.Errorf("got Dir = %s, want %s", c.Dir(), want)
	}
	if c.TTL() != time.Hour {
		t.Errorf("got TTL = %v, want 1h", c.TTL())
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestCache_Namespace(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	sizes := c.Namespace("size:")
	other := c.Namespace("other:")
	if err := sizes.Set("a", "sized"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := other.Set("a", "other"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var v string
	if ok, _ := sizes.Get("a", &v); !ok || v != "sized" {
		t.Errorf("sizes.Get() = %q, %v", v, ok)
	}
	if ok, _ := other.Get("a", &v); !ok || v != "other" {
		t.Errorf("other.Get() = %q, %v", v, ok)
	}
	if ok, _ := c.Get("a", &v); ok {
		t.Error("root cache should not see namespaced keys")
	}

	nested := c.Namespace("a:").Namespace("b:")
	if err := nested.Set("k", "x"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.Get("a:b:k", &v); !ok || v != "x" {
		t.Errorf("chained prefix not applied, got %q, %v", v, ok)
	}
}
