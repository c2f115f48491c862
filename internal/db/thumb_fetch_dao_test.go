package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/xxxsen/romdex/internal/thumb"

	"github.com/stretchr/testify/assert"
)

func testDao(t *testing.T) *thumbFetchDao {
	t.Helper()
	handle, err := Open(filepath.Join(t.TempDir(), "thumb.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })
	if err := EnsureSchema(context.Background(), handle); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return &thumbFetchDao{dbGetter: func() *sql.DB { return handle }}
}

func TestThumbFetchDaoRoundTrip(t *testing.T) {
	dao := testDao(t)
	ctx := context.Background()
	key := thumb.Key("SNES", "Mario", thumb.ImageBoxart)

	_, _, ok, err := dao.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Fatalf("expected miss on empty table")
	}

	if err := dao.Record(ctx, key, thumb.StateLoaded, "/cache/mario.png"); err != nil {
		t.Fatalf("record: %v", err)
	}
	state, path, ok, err := dao.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok {
		t.Fatalf("expected hit after record")
	}
	assert.Equal(t, thumb.StateLoaded, state)
	assert.Equal(t, "/cache/mario.png", path)

	// Recording the same key again updates in place.
	if err := dao.Record(ctx, key, thumb.StateNotFound, ""); err != nil {
		t.Fatalf("record update: %v", err)
	}
	state, path, ok, err = dao.Lookup(ctx, key)
	if err != nil || !ok {
		t.Fatalf("lookup after update: ok=%v err=%v", ok, err)
	}
	assert.Equal(t, thumb.StateNotFound, state)
	assert.Equal(t, "", path)
}

func TestThumbFetchDaoWithoutDatabase(t *testing.T) {
	dao := &thumbFetchDao{dbGetter: func() *sql.DB { return nil }}
	_, _, ok, err := dao.Lookup(context.Background(), "k")
	if err != nil || ok {
		t.Fatalf("nil database must behave as a silent miss, ok=%v err=%v", ok, err)
	}
	if err := dao.Record(context.Background(), "k", thumb.StateLoaded, "p"); err == nil {
		t.Fatalf("record without database must fail")
	}
}
