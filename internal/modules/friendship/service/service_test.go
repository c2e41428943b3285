package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/memstore"
	notification "anoa.com/userservice/internal/modules/notification/service"
	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/threading"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[int64][]notification.Event
}

func (p *recordingPublisher) Publish(_ context.Context, recipientID int64, event notification.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[int64][]notification.Event{}
	}
	p.events[recipientID] = append(p.events[recipientID], event)
	return nil
}

func (p *recordingPublisher) types(recipientID int64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events[recipientID] {
		types = append(types, e.Type)
	}
	return types
}

type fixture struct {
	svc       FriendshipService
	store     *memstore.Store
	runner    *threading.Threading
	publisher *recordingPublisher
	ids       map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	runner := threading.New(nil)
	publisher := &recordingPublisher{}
	f := &fixture{
		svc:       NewFriendshipService(store.Friendships(), store.Users(), nil, publisher, runner),
		store:     store,
		runner:    runner,
		publisher: publisher,
		ids:       map[string]int64{},
	}
	t.Cleanup(func() { runner.Stop(time.Second) })

	for _, u := range []entity.User{
		{ExternalID: "uid-alice", FirstName: "Alice", LastName: "Anderson", Username: "alice", Email: "alice@example.com"},
		{ExternalID: "uid-bob", FirstName: "Bob", LastName: "Brown", Username: "bob", Email: "bob@example.com"},
		{ExternalID: "uid-carol", FirstName: "Carol", LastName: "Clark", Username: "carol", Email: "carol@example.com"},
	} {
		user := u
		if err := store.Users().Create(context.Background(), &user); err != nil {
			t.Fatalf("create user %s: %v", u.Username, err)
		}
		f.ids[u.Username] = user.UserID
	}
	return f
}

// drain waits for background event publishing to finish.
func (f *fixture) drain() {
	f.runner.Stop(time.Second)
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func TestSendRequest_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.ids["alice"], f.ids["bob"]

	req, err := f.svc.SendRequest(ctx, "uid-alice", bob)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if req.FriendshipID != 1 || req.UserID1 != alice || req.UserID2 != bob || req.RequestedBy != alice || req.Status != entity.FriendshipPending {
		t.Fatalf("unexpected request row: %+v", req)
	}
	if req.CreatedAt == "" {
		t.Error("created_at not set")
	}

	accepted, err := f.svc.Accept(ctx, "uid-bob", req.FriendshipID)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if accepted.Status != entity.FriendshipAccepted {
		t.Errorf("status = %s, want accepted", accepted.Status)
	}

	aliceFriends, _ := f.svc.ListFriends(ctx, "uid-alice")
	bobFriends, _ := f.svc.ListFriends(ctx, "uid-bob")
	if len(aliceFriends) != 1 || aliceFriends[0].User.UserID != bob {
		t.Errorf("alice friends = %+v", aliceFriends)
	}
	if len(bobFriends) != 1 || bobFriends[0].User.UserID != alice {
		t.Errorf("bob friends = %+v", bobFriends)
	}

	if err := f.svc.RemoveFriend(ctx, "uid-bob", req.FriendshipID); err != nil {
		t.Fatalf("RemoveFriend() error = %v", err)
	}
	aliceFriends, _ = f.svc.ListFriends(ctx, "uid-alice")
	bobFriends, _ = f.svc.ListFriends(ctx, "uid-bob")
	if len(aliceFriends) != 0 || len(bobFriends) != 0 {
		t.Errorf("friends after remove: alice=%v bob=%v", aliceFriends, bobFriends)
	}
	if rows := f.store.FriendshipRows(); len(rows) != 0 {
		t.Errorf("rows after remove = %v", rows)
	}

	if _, err := f.svc.SendRequest(ctx, "uid-alice", bob); err != nil {
		t.Errorf("SendRequest() after removal error = %v", err)
	}

	f.drain()
	bobEvents := f.publisher.types(bob)
	if len(bobEvents) != 2 {
		t.Errorf("bob events = %v, want two requests", bobEvents)
	}
	for _, eventType := range bobEvents {
		if eventType != notification.EventFriendRequestReceived {
			t.Errorf("bob received %s", eventType)
		}
	}
	got := map[string]bool{}
	for _, eventType := range f.publisher.types(alice) {
		got[eventType] = true
	}
	if len(got) != 2 || !got[notification.EventFriendRequestAccepted] || !got[notification.EventFriendshipRemoved] {
		t.Errorf("alice events = %v", got)
	}
}

func TestSendRequest_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.ids["alice"], f.ids["bob"], f.ids["carol"]

	if _, err := f.svc.SendRequest(ctx, "uid-alice", bob); err != nil {
		t.Fatal(err)
	}
	accepted, err := f.svc.SendRequest(ctx, "uid-carol", alice)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Accept(ctx, "uid-alice", accepted.FriendshipID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		caller   string
		target   int64
		want     error
		wantText string
	}{
		{name: "reverse direction", caller: "uid-bob", target: alice, want: apperror.ErrConflict, wantText: "friend request already pending"},
		{name: "same direction", caller: "uid-alice", target: bob, want: apperror.ErrConflict, wantText: "friend request already pending"},
		{name: "already friends", caller: "uid-alice", target: carol, want: apperror.ErrConflict, wantText: "already friends"},
		{name: "self", caller: "uid-alice", target: alice, want: apperror.ErrBadRequest},
		{name: "unknown target", caller: "uid-alice", target: 999, want: apperror.ErrNotFound},
		{name: "unregistered caller", caller: "uid-ghost", target: bob, want: apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendRequest(ctx, tt.caller, tt.target)
			expectErr(t, err, tt.want)
			if tt.wantText != "" && err.Error() != tt.wantText {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantText)
			}
		})
	}

	if rows := f.store.FriendshipRows(); len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

func TestSendRequest_ConcurrentSamePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.ids["alice"], f.ids["bob"]

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		caller, target := "uid-alice", bob
		if i%2 == 1 {
			caller, target = "uid-bob", alice
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SendRequest(ctx, caller, target)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperror.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Errorf("successes = %d conflicts = %d", successes, conflicts)
	}
	rows := f.store.FriendshipRows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].UserID1 != alice || rows[0].UserID2 != bob {
		t.Errorf("pair stored as (%d,%d)", rows[0].UserID1, rows[0].UserID2)
	}
}

func TestPendingLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.ids["alice"], f.ids["bob"]

	if _, err := f.svc.SendRequest(ctx, "uid-alice", bob); err != nil {
		t.Fatal(err)
	}

	incomingBob, _ := f.svc.ListPendingIncoming(ctx, "uid-bob")
	if len(incomingBob) != 1 || incomingBob[0].User.UserID != alice || incomingBob[0].RequestedBy != alice {
		t.Errorf("bob incoming = %+v", incomingBob)
	}
	outgoingAlice, _ := f.svc.ListPendingOutgoing(ctx, "uid-alice")
	if len(outgoingAlice) != 1 || outgoingAlice[0].User.UserID != bob {
		t.Errorf("alice outgoing = %+v", outgoingAlice)
	}
	incomingAlice, _ := f.svc.ListPendingIncoming(ctx, "uid-alice")
	outgoingBob, _ := f.svc.ListPendingOutgoing(ctx, "uid-bob")
	if len(incomingAlice) != 0 || len(outgoingBob) != 0 {
		t.Errorf("alice incoming = %v, bob outgoing = %v", incomingAlice, outgoingBob)
	}

	if _, err := f.svc.ListPendingIncoming(ctx, "uid-ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unregistered caller error = %v", err)
	}
}

func TestPendingIncoming_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _ := f.svc.SendRequest(ctx, "uid-bob", f.ids["alice"])
	second, _ := f.svc.SendRequest(ctx, "uid-carol", f.ids["alice"])

	incoming, err := f.svc.ListPendingIncoming(ctx, "uid-alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(incoming) != 2 || incoming[0].FriendshipID != second.FriendshipID || incoming[1].FriendshipID != first.FriendshipID {
		t.Errorf("incoming order = %+v", incoming)
	}
}

func TestAccept_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SendRequest(ctx, "uid-alice", f.ids["bob"])
	if err != nil {
		t.Fatal(err)
	}

	expectErr(t, errOf(f.svc.Accept(ctx, "uid-alice", req.FriendshipID)), apperror.ErrForbidden)
	expectErr(t, errOf(f.svc.Accept(ctx, "uid-carol", req.FriendshipID)), apperror.ErrForbidden)
	expectErr(t, errOf(f.svc.Accept(ctx, "uid-bob", 999)), apperror.ErrNotFound)

	if _, err := f.svc.Accept(ctx, "uid-bob", req.FriendshipID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	_, err = f.svc.Accept(ctx, "uid-bob", req.FriendshipID)
	expectErr(t, err, apperror.ErrConflict)
	if err.Error() != "friend request already accepted" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRejectAndRemove(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		accept  bool
		useRem  bool
		want    error
		deleted bool
	}{
		{name: "recipient rejects pending", caller: "uid-bob", deleted: true},
		{name: "initiator cancels pending", caller: "uid-alice", deleted: true},
		{name: "reject on accepted row", caller: "uid-alice", accept: true, deleted: true},
		{name: "remove pending", caller: "uid-bob", useRem: true, deleted: true},
		{name: "non participant", caller: "uid-carol", want: apperror.ErrForbidden},
		{name: "non participant remove", caller: "uid-carol", accept: true, useRem: true, want: apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			req, err := f.svc.SendRequest(ctx, "uid-alice", f.ids["bob"])
			if err != nil {
				t.Fatal(err)
			}
			if tt.accept {
				if _, err := f.svc.Accept(ctx, "uid-bob", req.FriendshipID); err != nil {
					t.Fatal(err)
				}
			}

			op := f.svc.Reject
			if tt.useRem {
				op = f.svc.RemoveFriend
			}
			err = op(ctx, tt.caller, req.FriendshipID)
			if tt.want != nil {
				expectErr(t, err, tt.want)
			} else if err != nil {
				t.Fatalf("error = %v", err)
			}

			remaining := len(f.store.FriendshipRows())
			if tt.deleted && remaining != 0 {
				t.Errorf("row not deleted")
			}
			if !tt.deleted && remaining != 1 {
				t.Errorf("row count = %d, want 1", remaining)
			}
		})
	}
}

func TestReject_Missing(t *testing.T) {
	f := newFixture(t)
	expectErr(t, f.svc.Reject(context.Background(), "uid-alice", 42), apperror.ErrNotFound)
	expectErr(t, f.svc.RemoveFriend(context.Background(), "uid-alice", 42), apperror.ErrNotFound)
}

func TestSearch_Annotates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.ids["alice"]

	extra := entity.User{ExternalID: "uid-alina", FirstName: "Alina", LastName: "Zed", Username: "alina", Email: "alina@example.com"}
	if err := f.store.Users().Create(ctx, &extra); err != nil {
		t.Fatal(err)
	}

	pending, _ := f.svc.SendRequest(ctx, "uid-bob", alice)
	accepted, _ := f.svc.SendRequest(ctx, "uid-carol", alice)
	if _, err := f.svc.Accept(ctx, "uid-alice", accepted.FriendshipID); err != nil {
		t.Fatal(err)
	}

	results, err := f.svc.Search(ctx, "uid-alice", "R")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	got := map[string]*string{}
	for _, r := range results {
		if r.UserID == alice {
			t.Error("caller included in results")
		}
		got[r.Username] = r.FriendshipStatus
	}
	if s := got["bob"]; s == nil || *s != entity.FriendshipPending {
		t.Errorf("bob status = %v, want pending", s)
	}
	if s := got["carol"]; s == nil || *s != entity.FriendshipAccepted {
		t.Errorf("carol status = %v, want accepted", s)
	}
	for _, r := range results {
		if r.Username == "bob" && (r.FriendshipID == nil || *r.FriendshipID != pending.FriendshipID || *r.RequestedBy != f.ids["bob"]) {
			t.Errorf("bob annotation = %+v", r)
		}
	}

	strangers, _ := f.svc.Search(ctx, "uid-alice", "alina")
	if len(strangers) != 1 || strangers[0].FriendshipStatus != nil || strangers[0].FriendshipID != nil {
		t.Errorf("stranger annotation = %+v", strangers)
	}

	_, err = f.svc.Search(ctx, "uid-alice", "   ")
	expectErr(t, err, apperror.ErrBadRequest)
}

func TestSearch_OrderAndLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < SearchLimit+5; i++ {
		u := entity.User{
			ExternalID: "uid-bulk-" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			FirstName:  "Zed" + string(rune('a'+i%26)),
			LastName:   "Bulk",
			Username:   "bulk" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Email:      "bulk@example.com",
		}
		if err := f.store.Users().Create(ctx, &u); err != nil {
			t.Fatal(err)
		}
	}

	results, err := f.svc.Search(ctx, "uid-alice", "bulk")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != SearchLimit {
		t.Fatalf("len = %d, want %d", len(results), SearchLimit)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].FirstName > results[i].FirstName {
			t.Fatalf("results not ordered by first name at %d", i)
		}
	}
}

type fakeSearcher struct {
	ids   []int64
	err   error
	calls int
}

func (f *fakeSearcher) SearchUserIDs(_ context.Context, _ string, _ int64, _ int) ([]int64, error) {
	f.calls++
	return f.ids, f.err
}

func TestSearch_UsesIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.ids["alice"], f.ids["bob"], f.ids["carol"]

	if _, err := f.svc.SendRequest(ctx, "uid-bob", alice); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		searcher *fakeSearcher
		query    string
		want     []string
	}{
		{
			// The index matches on its own terms; rows come from the store.
			name:     "index hits loaded from store",
			searcher: &fakeSearcher{ids: []int64{carol, 9999, alice, bob}},
			query:    "anything",
			want:     []string{"bob", "carol"},
		},
		{
			name:     "index error falls back to store",
			searcher: &fakeSearcher{err: errors.New("meili down")},
			query:    "carol",
			want:     []string{"carol"},
		},
		{
			name:     "no index hits falls back to store",
			searcher: &fakeSearcher{},
			query:    "bob",
			want:     []string{"bob"},
		},
		{
			name:     "only stale ids falls back to store",
			searcher: &fakeSearcher{ids: []int64{9999}},
			query:    "carol",
			want:     []string{"carol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFriendshipService(f.store.Friendships(), f.store.Users(), tt.searcher, nil, f.runner)

			results, err := svc.Search(ctx, "uid-alice", tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if tt.searcher.calls != 1 {
				t.Errorf("index queried %d times, want 1", tt.searcher.calls)
			}

			var got []string
			for _, r := range results {
				got = append(got, r.Username)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("results = %v, want %v", got, tt.want)
			}
			for _, r := range results {
				if r.Username == "bob" && (r.FriendshipStatus == nil || *r.FriendshipStatus != entity.FriendshipPending) {
					t.Errorf("bob annotation = %+v", r)
				}
			}
		})
	}
}

func errOf(_ interface{}, err error) error { return err }
