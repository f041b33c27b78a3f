// ABOUTME: Tests for auth context propagation helpers
// ABOUTME: Covers WithClaims, FromContext, and MustFromContext behavior

package auth

import (
	"context"
	"testing"
)

func TestWithClaimsAndFromContext(t *testing.T) {
	claims := &Claims{UserID: "user-1", Username: "alice"}
	ctx := WithClaims(context.Background(), claims)

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("expected claims in context")
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want alice", got.Username)
	}
}

func TestFromContext_Empty(t *testing.T) {
	got := FromContext(context.Background())
	if got != nil {
		t.Errorf("expected nil claims, got %+v", got)
	}
}

func TestMustFromContext_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing claims")
		}
	}()
	MustFromContext(context.Background())
}
