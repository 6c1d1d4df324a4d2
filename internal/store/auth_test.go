package store

import (
	"testing"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

func newTestAuthDB(t *testing.T) *AuthDB {
	t.Helper()
	a, err := OpenAuthDB(":memory:")
	if err != nil {
		t.Fatalf("newTestAuthDB: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestUserLifecycle(t *testing.T) {
	a := newTestAuthDB(t)

	count, err := a.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id, err := a.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: "hash",
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := a.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != id {
		t.Errorf("expected id %d, got %d", id, u.ID)
	}
	if u.Role != model.UserRoleAdmin {
		t.Errorf("expected admin role, got %q", u.Role)
	}

	missing, err := a.GetUserByUsername("ghost")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown username")
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	a := newTestAuthDB(t)
	id, err := a.CreateUser(model.User{
		Username: "admin", DisplayName: "Admin", PasswordHash: "h",
		Role: model.UserRoleAdmin, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	token, err := a.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	sess, err := a.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.UserID != id {
		t.Errorf("expected user id %d, got %d", id, sess.UserID)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("expected session to expire in the future")
	}

	if err := a.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = a.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}
