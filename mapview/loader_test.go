package mapview

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoaderLoadsExactlyOnce(t *testing.T) {
	var loads int32
	loader := NewLoader(func(ctx context.Context) (Provider, error) {
		atomic.AddInt32(&loads, 1)
		return &fakeProvider{}, nil
	})

	ready1 := loader.Ensure(context.Background())
	ready2 := loader.Ensure(context.Background())

	select {
	case <-ready1:
	case <-time.After(time.Second):
		t.Fatal("first Ensure never became ready")
	}
	select {
	case <-ready2:
	case <-time.After(time.Second):
		t.Fatal("second Ensure never became ready")
	}

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Fatalf("factory invoked %d times, want 1", n)
	}
	provider, err := loader.Provider()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if provider == nil {
		t.Fatal("provider is nil after ready")
	}
}

func TestLoaderSkipsLoadWhenProviderPresent(t *testing.T) {
	existing := &fakeProvider{}
	loader := NewLoaderWithProvider(existing)

	ready := loader.Ensure(context.Background())
	select {
	case <-ready:
	default:
		t.Fatal("pre-seeded loader should be ready immediately")
	}

	provider, err := loader.Provider()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != Provider(existing) {
		t.Fatal("loader replaced the existing provider")
	}
}

func TestLoaderSurfacesLoadError(t *testing.T) {
	loader := NewLoader(func(ctx context.Context) (Provider, error) {
		return nil, fmt.Errorf("script blocked")
	})

	select {
	case <-loader.Ensure(context.Background()):
	case <-time.After(time.Second):
		t.Fatal("Ensure never settled")
	}

	if _, err := loader.Provider(); err == nil {
		t.Fatal("expected load error, got nil")
	}
}
