//go:build cgo

package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDuckDB(t *testing.T) *DuckDBStore {
	t.Helper()
	s, err := NewDuckDBStore(filepath.Join(t.TempDir(), "prefs.duckdb"))
	if err != nil {
		t.Fatalf("NewDuckDBStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDuckDBStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestDuckDB(t)

	if got, err := Load(ctx, s); err != nil || got != Default() {
		t.Fatalf("empty Load = %+v, %v", got, err)
	}

	st := Default()
	st.ZoomDragMode = true
	if err := Save(ctx, s, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st.Colorbar = true
	if err := Save(ctx, s, st); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := Load(ctx, s)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != st {
		t.Errorf("Load = %+v, want %+v", got, st)
	}
}

func TestDuckDBStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestDuckDB(t)
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	s.Put(ctx, "k", []byte(`1`))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
}
