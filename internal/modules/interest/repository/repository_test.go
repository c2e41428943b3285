package repository

import (
	"context"
	"testing"

	"anoa.com/userservice/pkg/database/dbtest"
)

func TestInterestRepository_Replace(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		ids  []int64
		want [][]string
	}{
		{
			name: "swaps the whole set",
			ids:  []int64{4, 9},
			want: [][]string{
				{`DELETE FROM "user_interests"`, "WHERE user_id = 3"},
				{`INSERT INTO "user_interests"`, "(3,4),(3,9)"},
			},
		},
		{
			name: "empty set only clears",
			ids:  nil,
			want: [][]string{
				{`DELETE FROM "user_interests"`, "WHERE user_id = 3"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, rec := dbtest.Open(t)

			if err := NewInterestRepository(db).Replace(ctx, 3, tt.ids); err != nil {
				t.Fatalf("Replace: %v", err)
			}

			stmts := rec.Statements()
			if len(stmts) != len(tt.want) {
				t.Fatalf("got %d statements, want %d: %v", len(stmts), len(tt.want), stmts)
			}
			for i, fragments := range tt.want {
				dbtest.AssertContains(t, stmts[i], fragments...)
			}
			if begins, commits, _ := rec.Tx(); begins != 1 || commits != 1 {
				t.Errorf("tx = %d begins %d commits, want one of each", begins, commits)
			}
		})
	}
}

func TestInterestRepository_Queries(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(r InterestRepository)
		want []string
	}{
		{
			name: "catalog by name",
			run:  func(r InterestRepository) { _, _ = r.FindAll(ctx) },
			want: []string{`FROM "interests"`, "ORDER BY name ASC"},
		},
		{
			name: "user interests through the join table",
			run:  func(r InterestRepository) { _, _ = r.FindByUser(ctx, 3) },
			want: []string{
				"interests AS i",
				"JOIN user_interests ui ON ui.interest_id = i.interest_id",
				"ui.user_id = 3",
				"ORDER BY i.name ASC",
			},
		},
		{
			name: "existing ids",
			run:  func(r InterestRepository) { _, _ = r.FindExistingIDs(ctx, []int64{1, 2, 40}) },
			want: []string{`FROM "interests"`, "interest_id IN (1,2,40)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, rec := dbtest.Open(t)
			tt.run(NewInterestRepository(db))
			dbtest.AssertContains(t, rec.Last(), tt.want...)
		})
	}
}
