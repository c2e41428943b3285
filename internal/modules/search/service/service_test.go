package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/userservice/internal/entity"
	"github.com/meilisearch/meilisearch-go"
)

func TestNewUserDoc(t *testing.T) {
	pic := "https://res.cloudinary.com/demo/image/upload/a.webp"
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := newUserDoc(&entity.User{
		UserID:         7,
		Username:       "alice",
		FirstName:      "<b>Alice</b>",
		LastName:       "Liddell",
		ProfilePicture: &pic,
		CreatedAt:      created,
	})

	if doc.UserID != 7 || doc.Username != "alice" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.FirstName != "Alice" {
		t.Errorf("FirstName = %q, want markup stripped", doc.FirstName)
	}
	if doc.ProfilePicture != pic {
		t.Errorf("ProfilePicture = %q", doc.ProfilePicture)
	}
	if doc.CreatedAt != created.Unix() {
		t.Errorf("CreatedAt = %d, want %d", doc.CreatedAt, created.Unix())
	}

	if got := newUserDoc(&entity.User{UserID: 8}); got.ProfilePicture != "" {
		t.Errorf("nil picture rendered as %q", got.ProfilePicture)
	}
}

// fakeMeili answers the handful of Meilisearch endpoints the service uses.
type fakeMeili struct {
	mu       sync.Mutex
	requests map[string]int
	search   map[string]interface{}
	hits     string
}

func (f *fakeMeili) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[r.Method+" "+r.URL.Path]++

	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/search") {
		_ = json.NewDecoder(r.Body).Decode(&f.search)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"hits":` + f.hits + `,"query":"al","processingTimeMs":1,"limit":50,"offset":0,"estimatedTotalHits":2}`))
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"taskUid":1,"indexUid":"users","status":"enqueued","type":"settingsUpdate","enqueuedAt":"2025-01-01T00:00:00Z"}`))
}

func newFakeMeili(t *testing.T, hits string) (*fakeMeili, UserSearchIndex) {
	t.Helper()
	fake := &fakeMeili{requests: map[string]int{}, hits: hits}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, NewMeiliSearchService(meilisearch.New(srv.URL, meilisearch.WithAPIKey("test")), "users")
}

func TestMeiliSearchService_InitIndex(t *testing.T) {
	fake, _ := newFakeMeili(t, `[]`)

	for _, path := range []string{
		"PUT /indexes/users/settings/searchable-attributes",
		"PUT /indexes/users/settings/filterable-attributes",
		"PUT /indexes/users/settings/sortable-attributes",
	} {
		if fake.requests[path] != 1 {
			t.Errorf("%s called %d times, want 1", path, fake.requests[path])
		}
	}
}

func TestMeiliSearchService_SearchUserIDs(t *testing.T) {
	fake, index := newFakeMeili(t, `[{"user_id":3},{"user_id":5}]`)

	ids, err := index.SearchUserIDs(context.Background(), "al", 7, 50)
	if err != nil {
		t.Fatalf("SearchUserIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 5 {
		t.Errorf("ids = %v, want [3 5]", ids)
	}

	if fake.search["q"] != "al" {
		t.Errorf("q = %v", fake.search["q"])
	}
	if fake.search["filter"] != "user_id != 7" {
		t.Errorf("filter = %v", fake.search["filter"])
	}
	if fake.search["limit"] != float64(50) {
		t.Errorf("limit = %v", fake.search["limit"])
	}
}

func TestMeiliSearchService_IndexAndDelete(t *testing.T) {
	fake, index := newFakeMeili(t, `[]`)
	ctx := context.Background()

	if err := index.IndexUser(ctx, &entity.User{UserID: 3, Username: "alice"}); err != nil {
		t.Fatalf("IndexUser() error = %v", err)
	}
	if err := index.DeleteUser(ctx, 3); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	if fake.requests["POST /indexes/users/documents"] != 1 {
		t.Errorf("documents add calls = %v", fake.requests)
	}
	if fake.requests["DELETE /indexes/users/documents/3"] != 1 {
		t.Errorf("document delete calls = %v", fake.requests)
	}
}
