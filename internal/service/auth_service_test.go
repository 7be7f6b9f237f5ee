package service_test

import (
	"context"
	"testing"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/service"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	user, token, err := h.services.Auth.Register(ctx, service.RegisterInput{
		Username: "newreader",
		Email:    "reader@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Error("no token issued on registration")
	}
	if user.Role != models.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, models.RoleUser)
	}
	if user.Password == "secret123" {
		t.Error("password stored in plaintext")
	}

	// login by username
	if _, _, err := h.services.Auth.Login(ctx, "newreader", "secret123"); err != nil {
		t.Errorf("login by username: %v", err)
	}
	// login by email
	if _, _, err := h.services.Auth.Login(ctx, "reader@example.com", "secret123"); err != nil {
		t.Errorf("login by email: %v", err)
	}
	// wrong password
	if _, _, err := h.services.Auth.Login(ctx, "newreader", "wrong"); !service.IsPermission(err) {
		t.Errorf("wrong password: got %v, want permission error", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	in := service.RegisterInput{Username: "reader", Email: "reader@example.com", Password: "secret123"}
	if _, _, err := h.services.Auth.Register(ctx, in); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := h.services.Auth.Register(ctx, in); !service.IsDuplicate(err) {
		t.Errorf("duplicate registration: got %v, want duplicate error", err)
	}

	in.Email = "other@example.com"
	if _, _, err := h.services.Auth.Register(ctx, in); !service.IsDuplicate(err) {
		t.Errorf("duplicate username: got %v, want duplicate error", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   service.RegisterInput
	}{
		{"short username", service.RegisterInput{Username: "ab", Email: "a@b.com", Password: "secret123"}},
		{"bad username chars", service.RegisterInput{Username: "bad name!", Email: "a@b.com", Password: "secret123"}},
		{"bad email", service.RegisterInput{Username: "reader", Email: "not-an-email", Password: "secret123"}},
		{"short password", service.RegisterInput{Username: "reader", Email: "a@b.com", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := h.services.Auth.Register(ctx, tc.in); !service.IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	user, _, err := h.services.Auth.Register(ctx, service.RegisterInput{
		Username: "banned",
		Email:    "banned@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	user.IsActive = false
	if err := h.userRepo.Update(ctx, user); err != nil {
		t.Fatal(err)
	}

	if _, _, err := h.services.Auth.Login(ctx, "banned", "secret123"); !service.IsPermission(err) {
		t.Errorf("inactive login: got %v, want permission error", err)
	}
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	registered, token, err := h.services.Auth.Register(ctx, service.RegisterInput{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	verified, err := h.services.Auth.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if verified.ID != registered.ID {
		t.Errorf("token resolved to %s, want %s", verified.ID.Hex(), registered.ID.Hex())
	}

	if _, err := h.services.Auth.VerifyToken(ctx, "not.a.token"); !service.IsPermission(err) {
		t.Errorf("garbage token: got %v, want permission error", err)
	}
}

func TestChangePassword(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	user, _, err := h.services.Auth.Register(ctx, service.RegisterInput{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := h.services.Auth.ChangePassword(ctx, user.ID, "wrong", "newsecret"); !service.IsPermission(err) {
		t.Errorf("wrong current password: got %v, want permission error", err)
	}
	if err := h.services.Auth.ChangePassword(ctx, user.ID, "secret123", "newsecret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := h.services.Auth.Login(ctx, "reader", "newsecret"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, _, err := h.services.Auth.Login(ctx, "reader", "secret123"); !service.IsPermission(err) {
		t.Errorf("login with old password: got %v, want permission error", err)
	}
}
