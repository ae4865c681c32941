package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb)
}

func createTestUser(t *testing.T, s *Store, email, username string) tourneyauth.UserRecord {
	t.Helper()

	user, err := s.CreateUser(context.Background(), tourneyauth.CreateUserInput{
		Email:        email,
		Username:     username,
		PasswordHash: "$argon2id$...",
		Role:         tourneyauth.RoleUser,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestCreateAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "karl@empire.example", "karlfranz")
	if user.UserID == "" {
		t.Fatal("expected a generated user id")
	}

	byEmail, err := s.GetUserByEmail(ctx, "karl@empire.example")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail != user {
		t.Fatalf("lookup mismatch: got %+v, want %+v", byEmail, user)
	}

	byID, err := s.GetUserByID(ctx, user.UserID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID != user {
		t.Fatalf("lookup mismatch: got %+v, want %+v", byID, user)
	}
}

func TestLookupMissingUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUserByEmail(ctx, "nobody@empire.example"); !errors.Is(err, tourneyauth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, tourneyauth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "karl@empire.example", "karlfranz")

	// Same email, different username.
	_, err := s.CreateUser(ctx, tourneyauth.CreateUserInput{
		Email:        "karl@empire.example",
		Username:     "other",
		PasswordHash: "h",
		Role:         tourneyauth.RoleUser,
	})
	if !errors.Is(err, tourneyauth.ErrProviderDuplicateIdentifier) {
		t.Fatalf("expected duplicate error for taken email, got %v", err)
	}

	// Same username, different email.
	_, err = s.CreateUser(ctx, tourneyauth.CreateUserInput{
		Email:        "other@empire.example",
		Username:     "karlfranz",
		PasswordHash: "h",
		Role:         tourneyauth.RoleUser,
	})
	if !errors.Is(err, tourneyauth.ErrProviderDuplicateIdentifier) {
		t.Fatalf("expected duplicate error for taken username, got %v", err)
	}

	// The failed attempts must not have claimed any index.
	if _, err := s.GetUserByEmail(ctx, "other@empire.example"); !errors.Is(err, tourneyauth.ErrUserNotFound) {
		t.Fatalf("failed create leaked an index entry: %v", err)
	}
}

func TestUpdateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "karl@empire.example", "karlfranz")

	updated, err := s.UpdateUsername(ctx, user.UserID, "emperor")
	if err != nil {
		t.Fatalf("UpdateUsername failed: %v", err)
	}
	if updated.Username != "emperor" {
		t.Fatalf("username = %q, want emperor", updated.Username)
	}

	// The old name is free again, the new one is taken.
	createTestUser(t, s, "newguy@empire.example", "karlfranz")
	if _, err := s.UpdateUsername(ctx, user.UserID, "karlfranz"); !errors.Is(err, tourneyauth.ErrProviderDuplicateIdentifier) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestUpdateUsernameMissingUser(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateUsername(context.Background(), "missing", "name"); !errors.Is(err, tourneyauth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
