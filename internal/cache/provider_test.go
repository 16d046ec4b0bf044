package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopProviderAlwaysMisses(t *testing.T) {
	var provider Provider = NoopProvider{}
	ctx := context.Background()

	if err := provider.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := provider.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
	if err := provider.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if err := provider.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestValkeyProviderRequiresAddr(t *testing.T) {
	if _, err := NewValkeyProvider(ValkeyConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}
