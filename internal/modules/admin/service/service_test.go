package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/identity"
	"anoa.com/userservice/internal/memstore"
	"anoa.com/userservice/pkg/apperror"
)

type recordingSync struct {
	mu    sync.Mutex
	calls map[string]string
}

func (r *recordingSync) Schedule(_ context.Context, externalID, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]string{}
	}
	r.calls[externalID] = role
}

type fixedClaims map[string]string

func (f fixedClaims) GetRole(_ context.Context, externalID string) (string, error) {
	return f[externalID], nil
}

func (f fixedClaims) SetRole(context.Context, string, string) error { return nil }

func TestUpdateRole(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		asserted string
		claims   identity.ClaimStore
		target   string
		role     string
		want     error
	}{
		{name: "admin by stored row", caller: "uid-admin", target: "bob", role: "moderator"},
		{name: "admin by asserted header", caller: "uid-bob", asserted: "admin", target: "bob", role: "admin"},
		{name: "admin by claim", caller: "uid-bob", claims: fixedClaims{"uid-bob": "admin"}, target: "bob", role: "moderator"},
		{name: "unregistered admin by header", caller: "uid-gateway", asserted: "admin", target: "bob", role: "user"},
		{name: "not admin", caller: "uid-bob", target: "bob", role: "admin", want: apperror.ErrForbidden},
		{name: "claim overrides stored admin", caller: "uid-admin", claims: fixedClaims{"uid-admin": "user"}, target: "bob", role: "user", want: apperror.ErrForbidden},
		{name: "invalid role", caller: "uid-admin", target: "bob", role: "root", want: apperror.ErrBadRequest},
		{name: "invalid role checked before target", caller: "uid-admin", target: "missing", role: "root", want: apperror.ErrBadRequest},
		{name: "missing target", caller: "uid-admin", target: "missing", role: "user", want: apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			ctx := context.Background()
			admin := entity.User{ExternalID: "uid-admin", FirstName: "Ada", LastName: "Admin", Username: "ada", Email: "ada@example.com"}
			bob := entity.User{ExternalID: "uid-bob", FirstName: "Bob", LastName: "B", Username: "bob", Email: "bob@example.com"}
			for _, u := range []*entity.User{&admin, &bob} {
				if err := store.Users().Create(ctx, u); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := store.Users().Update(ctx, admin.UserID, map[string]interface{}{"role": entity.RoleAdmin}); err != nil {
				t.Fatal(err)
			}

			targetID := bob.UserID
			if tt.target == "missing" {
				targetID = 999
			}

			syncer := &recordingSync{}
			svc := NewAdminService(store.Users(), tt.claims, syncer)
			res, err := svc.UpdateRole(ctx, tt.caller, tt.asserted, targetID, tt.role)

			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("error = %v, want %v", err, tt.want)
				}
				if len(syncer.calls) != 0 {
					t.Errorf("claim sync scheduled on failure: %v", syncer.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if res.Status != "updated" || res.ClaimSync != "scheduled" || res.Role != tt.role || res.FirebaseUID != "uid-bob" {
				t.Errorf("response = %+v", res)
			}
			stored, _ := store.Users().FindByID(ctx, bob.UserID)
			if stored.Role != tt.role {
				t.Errorf("stored role = %s, want %s", stored.Role, tt.role)
			}
			if syncer.calls["uid-bob"] != tt.role {
				t.Errorf("claim sync = %v", syncer.calls)
			}
		})
	}
}
