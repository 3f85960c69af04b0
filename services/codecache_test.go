package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryCodeCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCodeCache().WithClock(func() time.Time { return now })

	if err := cache.Set(ctx, "otp_1", "123456", 300*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(299 * time.Second)
	if v, ok, _ := cache.Get(ctx, "otp_1"); !ok || v != "123456" {
		t.Fatalf("Get before expiry = %q, %v", v, ok)
	}

	now = now.Add(time.Second)
	if _, ok, _ := cache.Get(ctx, "otp_1"); ok {
		t.Fatal("value still live at ttl")
	}
}

func TestMemoryCodeCacheOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCodeCache()

	_ = cache.Set(ctx, "k", "first", time.Minute)
	_ = cache.Set(ctx, "k", "second", time.Minute)
	if v, _, _ := cache.Get(ctx, "k"); v != "second" {
		t.Fatalf("Get = %q, want second", v)
	}

	_ = cache.Delete(ctx, "k")
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Fatal("value survived Delete")
	}
}

func TestMemoryCodeCacheConsumeIf(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCodeCache()
	_ = cache.Set(ctx, "k", "v", time.Minute)

	equals := func(want string) func(string) bool {
		return func(got string) bool { return got == want }
	}

	tests := []struct {
		name         string
		key          string
		match        string
		wantFound    bool
		wantConsumed bool
	}{
		{"missing key", "other", "v", false, false},
		{"mismatch keeps value", "k", "x", true, false},
		{"match consumes", "k", "v", true, true},
		{"second consume finds nothing", "k", "v", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, consumed, err := cache.ConsumeIf(ctx, tt.key, equals(tt.match))
			if err != nil {
				t.Fatalf("ConsumeIf: %v", err)
			}
			if found != tt.wantFound || consumed != tt.wantConsumed {
				t.Errorf("got found=%v consumed=%v, want %v %v", found, consumed, tt.wantFound, tt.wantConsumed)
			}
		})
	}
}

func TestMemoryCodeCacheConsumeOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCodeCache()
	_ = cache.Set(ctx, "k", "v", time.Minute)

	var consumedCount int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, consumed, _ := cache.ConsumeIf(ctx, "k", func(v string) bool { return v == "v" })
			if consumed {
				atomic.AddInt32(&consumedCount, 1)
			}
		}()
	}
	wg.Wait()

	if consumedCount != 1 {
		t.Fatalf("consumed %d times, want 1", consumedCount)
	}
}

func TestMemoryCodeCacheSetSweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCodeCache().WithClock(func() time.Time { return now })

	_ = cache.Set(ctx, "old", "v", time.Second)
	now = now.Add(2 * time.Second)
	_ = cache.Set(ctx, "new", "v", time.Second)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if _, ok := cache.entries["old"]; ok {
		t.Fatal("expired entry not swept")
	}
}

func TestMemoryCodeCacheDropsValueAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCodeCache().WithMaxAttempts(3)
	_ = cache.Set(ctx, "k", "v", time.Minute)

	wrong := func(string) bool { return false }
	for i := 0; i < 3; i++ {
		found, consumed, _ := cache.ConsumeIf(ctx, "k", wrong)
		if !found || consumed {
			t.Fatalf("attempt %d: found=%v consumed=%v", i+1, found, consumed)
		}
	}

	found, _, _ := cache.ConsumeIf(ctx, "k", func(v string) bool { return v == "v" })
	if found {
		t.Fatal("value survived the attempt limit")
	}
}

func TestMemoryCodeCacheSetResetsAttempts(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCodeCache().WithMaxAttempts(2)
	_ = cache.Set(ctx, "k", "v", time.Minute)
	_, _, _ = cache.ConsumeIf(ctx, "k", func(string) bool { return false })

	_ = cache.Set(ctx, "k", "w", time.Minute)
	_, _, _ = cache.ConsumeIf(ctx, "k", func(string) bool { return false })

	if _, consumed, _ := cache.ConsumeIf(ctx, "k", func(v string) bool { return v == "w" }); !consumed {
		t.Fatal("fresh value dropped by failures on the old one")
	}
}
