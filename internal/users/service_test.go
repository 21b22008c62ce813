package users

import (
	"context"
	"errors"
	"testing"
)

func TestService_RegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	u, err := svc.Register(ctx, "u1", "u1@x.com", "User One", "s3cret", []string{"user"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Fatalf("password was not hashed: %q", u.PasswordHash)
	}

	got, err := svc.Authenticate(ctx, "u1@x.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got.Sub != "u1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "u1", "u1@x.com", "", "s3cret", nil); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, err := svc.Authenticate(ctx, "u1@x.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_Authenticate_UnknownEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Authenticate(context.Background(), "ghost@x.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestMemoryRepository_UpsertPreservesCreatedAt(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	svc := NewService(repo)

	first, err := svc.Register(ctx, "u1", "u1@x.com", "", "one", nil)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	second, err := svc.Register(ctx, "u1", "u1@new.com", "", "two", nil)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("createdAt changed on upsert: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if second.Email != "u1@new.com" {
		t.Fatalf("email not updated: %+v", second)
	}
}
