package service

import (
	"context"
	"errors"
	"testing"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/memstore"
	"anoa.com/userservice/pkg/apperror"
)

func newTestService(t *testing.T) (InterestService, int64) {
	t.Helper()
	store := memstore.New()
	store.SeedInterests(
		entity.Interest{InterestID: 1, Name: "Music"},
		entity.Interest{InterestID: 2, Name: "Art"},
		entity.Interest{InterestID: 3, Name: "Hiking"},
	)

	user := entity.User{ExternalID: "uid-alice", FirstName: "Alice", LastName: "A", Username: "alice", Email: "a@example.com"}
	if err := store.Users().Create(context.Background(), &user); err != nil {
		t.Fatal(err)
	}
	other := entity.User{ExternalID: "uid-bob", FirstName: "Bob", LastName: "B", Username: "bob", Email: "b@example.com"}
	if err := store.Users().Create(context.Background(), &other); err != nil {
		t.Fatal(err)
	}
	return NewInterestService(store.Interests(), store.Users()), user.UserID
}

func TestListAll_OrderedByName(t *testing.T) {
	svc, _ := newTestService(t)

	all, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Art", "Hiking", "Music"}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("all[%d] = %s, want %s", i, all[i].Name, name)
		}
	}
}

func TestReplaceForUser_Idempotent(t *testing.T) {
	svc, alice := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.ReplaceForUser(ctx, "uid-alice", alice, []int64{1, 2})
		if err != nil {
			t.Fatalf("ReplaceForUser() error = %v", err)
		}
		if len(res) != 2 {
			t.Fatalf("round %d: len = %d, want 2", i, len(res))
		}
	}

	mine, err := svc.ListForUser(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].Name != "Art" || mine[1].Name != "Music" {
		t.Errorf("ListForUser() = %+v", mine)
	}
}

func TestReplaceForUser_Rules(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		ids     []int64
		want    error
		wantLen int
	}{
		{name: "duplicates collapse", caller: "uid-alice", ids: []int64{3, 3, 1}, wantLen: 2},
		{name: "empty clears", caller: "uid-alice", ids: []int64{}, wantLen: 0},
		{name: "unknown id keeps previous set", caller: "uid-alice", ids: []int64{1, 99}, want: apperror.ErrBadRequest, wantLen: 1},
		{name: "other user", caller: "uid-bob", ids: []int64{2}, want: apperror.ErrForbidden, wantLen: 1},
		{name: "unregistered caller", caller: "uid-ghost", ids: []int64{2}, want: apperror.ErrForbidden, wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, alice := newTestService(t)
			ctx := context.Background()
			if _, err := svc.ReplaceForUser(ctx, "uid-alice", alice, []int64{3}); err != nil {
				t.Fatal(err)
			}

			_, err := svc.ReplaceForUser(ctx, tt.caller, alice, tt.ids)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("error = %v, want %v", err, tt.want)
				}
			} else if err != nil {
				t.Fatalf("error = %v", err)
			}

			mine, _ := svc.ListForUser(ctx, alice)
			if len(mine) != tt.wantLen {
				t.Errorf("set size = %d, want %d", len(mine), tt.wantLen)
			}
		})
	}
}

func TestReplaceForUser_ListsUnknownIDs(t *testing.T) {
	svc, alice := newTestService(t)

	_, err := svc.ReplaceForUser(context.Background(), "uid-alice", alice, []int64{42, 1, 7})
	if err == nil || err.Error() != "unknown interest ids: 7, 42" {
		t.Errorf("error = %v", err)
	}
}

func TestListForUser_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.ListForUser(context.Background(), 404); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
