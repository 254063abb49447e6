package telemetry

import (
	"context"
	"fmt"
	"testing"
)

func TestDisabledProviderTrackRunsFn(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	called := false
	err = p.Track(ctx, "ledger.append", nil, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if !called {
		t.Fatal("expected wrapped function to run")
	}
}

func TestDisabledProviderTrackPropagatesError(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	wantErr := fmt.Errorf("boom")
	err = p.Track(ctx, "merkle.build", nil, func(context.Context) error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected error to propagate, got %v", err)
	}
}

func TestDisabledProviderShutdownIsNoop(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("expected shutdown to be a no-op, got %v", err)
	}
}
