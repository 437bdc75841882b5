package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestKV(t *testing.T) *KV {
	t.Helper()
	kv, err := Open(context.Background(), filepath.Join(t.TempDir(), "session.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestKV_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	kv := openTestKV(t)

	if _, ok, err := kv.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("expected missing key; ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, KeyToken, "tok-1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, KeyToken, "tok-2", 0); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, KeyToken)
	if err != nil || !ok || v != "tok-2" {
		t.Fatalf("expected tok-2; got %q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Delete(ctx, KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, KeyToken); ok {
		t.Fatalf("expected key deleted")
	}
}

func TestKV_Expiry(t *testing.T) {
	ctx := context.Background()
	kv := openTestKV(t)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })

	if err := kv.Set(ctx, KeyRole, "admin", 7*24*time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(6 * 24 * time.Hour)
	if v, ok, _ := kv.Get(ctx, KeyRole); !ok || v != "admin" {
		t.Fatalf("expected role before expiry; got %q ok=%v", v, ok)
	}
	now = now.Add(2 * 24 * time.Hour)
	if _, ok, _ := kv.Get(ctx, KeyRole); ok {
		t.Fatalf("expected role to expire")
	}
}

func TestKV_Clear(t *testing.T) {
	ctx := context.Background()
	kv := openTestKV(t)
	_ = kv.Set(ctx, KeyUserID, "u1", 0)
	_ = kv.Set(ctx, KeyJoinCode, "ABC", 0)
	if err := kv.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, KeyUserID); ok {
		t.Fatalf("expected cleared")
	}
}
