package requestctx

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestOrgIDHolder(t *testing.T) {
	var holder string
	ctx := WithOrgID(context.Background(), &holder)
	SetOrgID(ctx, "org-1")
	if holder != "org-1" || GetOrgID(ctx) != "org-1" {
		t.Fatalf("expected org id to propagate, got %q", holder)
	}
	SetOrgID(context.Background(), "ignored")
	if GetOrgID(context.Background()) != "" {
		t.Fatal("expected empty org id without holder")
	}
}
