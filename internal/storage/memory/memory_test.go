package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreSetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.Get(ctx, "a"); ok || err != nil {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "a", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := s.Get(ctx, "a"); !ok || v != "2" {
		t.Fatalf("expected last write to win, got %q ok=%v", v, ok)
	}
	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keys, _ := s.Keys(context.Background(), ""); len(keys) != 0 {
		t.Fatalf("expected empty store, got %v", keys)
	}

	path := filepath.Join(dir, "seed.json")
	content := `{"@gofinances:transactions_user:1": [{"id":"a"}], "@gofinances:user": {"id":"1"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	v, ok, _ := s.Get(context.Background(), "@gofinances:transactions_user:1")
	if !ok || v != `[{"id":"a"}]` {
		t.Fatalf("unexpected seeded value %q ok=%v", v, ok)
	}
	keys, _ := s.Keys(context.Background(), "@gofinances:transactions_user:")
	if len(keys) != 1 {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
