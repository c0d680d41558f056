package auth

import (
	"context"
	"testing"
)

func TestContextCarriesUserAndToken(t *testing.T) {
	ctx := context.Background()

	if _, ok := UserFromContext(ctx); ok {
		t.Fatal("empty context must not hold a user")
	}
	if _, ok := TokenFromContext(ctx); ok {
		t.Fatal("empty context must not hold a token")
	}

	ctx = ContextWithUser(ctx, User{ID: "u-1", Email: "a@b.c"})
	ctx = ContextWithToken(ctx, "raw-token")

	user, ok := UserFromContext(ctx)
	if !ok || user.ID != "u-1" {
		t.Fatalf("user = %+v ok=%v", user, ok)
	}
	token, ok := TokenFromContext(ctx)
	if !ok || token != "raw-token" {
		t.Fatalf("token = %q ok=%v", token, ok)
	}
}

func TestContextWithTokenIgnoresEmpty(t *testing.T) {
	ctx := ContextWithToken(context.Background(), "")
	if _, ok := TokenFromContext(ctx); ok {
		t.Fatal("blank token must not be stored")
	}
}
