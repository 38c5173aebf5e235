package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/auth"
)

func TestIdentityRoundTrip(t *testing.T) {
	want := auth.Identity{
		UID:         uuid.New(),
		PhoneNumber: "+15551234567",
		DisplayName: "Asha",
	}

	ctx := WithIdentity(context.Background(), want)

	got, ok := IdentityFromCtx(ctx)
	if !ok {
		t.Fatal("identity not found in context")
	}
	if got.UID != want.UID || got.PhoneNumber != want.PhoneNumber {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestIdentityMissing(t *testing.T) {
	if _, ok := IdentityFromCtx(context.Background()); ok {
		t.Fatal("expected no identity in empty context")
	}
}

func TestIdentityWithoutPhoneNumber(t *testing.T) {
	ctx := WithIdentity(context.Background(), auth.Identity{UID: uuid.New()})

	if _, ok := IdentityFromCtx(ctx); ok {
		t.Fatal("identity without phone number should not be returned")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")

	if got := RequestIDFromCtx(ctx); got != "req-123" {
		t.Errorf("got %q, want req-123", got)
	}
	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
