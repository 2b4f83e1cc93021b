package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "cache"), nil)
}

func TestStore_URIFormat(t *testing.T) {
	c := newTestCache(t)

	data := []byte("encrypted payload")
	uri, err := c.Store(data)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	sum := sha256.Sum256(data)
	want := Scheme + hex.EncodeToString(sum[:])
	if uri != want {
		t.Errorf("Store() uri = %q, want %q", uri, want)
	}
	if len(uri) != len(Scheme)+64 {
		t.Errorf("uri length = %d, want %d", len(uri), len(Scheme)+64)
	}
}

func TestStore_Deterministic(t *testing.T) {
	c := newTestCache(t)

	uri1, err := c.Store([]byte("same bytes"))
	if err != nil {
		t.Fatalf("first Store() error = %v", err)
	}
	uri2, err := c.Store([]byte("same bytes"))
	if err != nil {
		t.Fatalf("second Store() error = %v", err)
	}
	if uri1 != uri2 {
		t.Errorf("identical content produced different URIs: %q vs %q", uri1, uri2)
	}

	uris, err := c.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(uris) != 1 {
		t.Errorf("List() returned %d entries, want 1", len(uris))
	}
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	c := newTestCache(t)

	data := []byte{0x01, 0x02, 0xff, 0x00, 0x7f}
	uri, err := c.Store(data)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := c.Load(uri)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Load() = %x, want %x", got, data)
	}
}

func TestLoad_Miss(t *testing.T) {
	c := newTestCache(t)

	uri := Scheme + "0000000000000000000000000000000000000000000000000000000000000000"
	_, err := c.Load(uri)

	var miss *MissError
	if !errors.As(err, &miss) {
		t.Fatalf("Load() error = %v, want MissError", err)
	}
	if miss.URI != uri {
		t.Errorf("MissError.URI = %q, want %q", miss.URI, uri)
	}

	// A miss must not disturb existing entries.
	if entries, _ := c.List(); len(entries) != 0 {
		t.Errorf("miss created %d entries", len(entries))
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache(t)

	uri, err := c.Store([]byte("going away"))
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if !c.Exists(uri) {
		t.Fatal("entry missing after Store")
	}
	if err := c.Delete(uri); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if c.Exists(uri) {
		t.Error("entry still present after Delete")
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t)

	for _, s := range []string{"a", "b", "c"} {
		if _, err := c.Store([]byte(s)); err != nil {
			t.Fatalf("Store(%q) error = %v", s, err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	uris, err := c.List()
	if err != nil {
		t.Fatalf("List() after Clear error = %v", err)
	}
	if len(uris) != 0 {
		t.Errorf("List() after Clear = %d entries, want 0", len(uris))
	}
}

func TestSizeBytes(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.Store(make([]byte, 100)); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if _, err := c.Store([]byte("tiny")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	size, err := c.SizeBytes()
	if err != nil {
		t.Fatalf("SizeBytes() error = %v", err)
	}
	if size != 104 {
		t.Errorf("SizeBytes() = %d, want 104", size)
	}
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	c := newTestCache(t)

	uri, err := c.Store([]byte("real entry"))
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	uris, err := c.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(uris) != 1 || uris[0] != uri {
		t.Errorf("List() = %v, want [%q]", uris, uri)
	}
}
