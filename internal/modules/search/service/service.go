package service

import (
	"context"
	"fmt"
	"strconv"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/sanitize"
	"github.com/meilisearch/meilisearch-go"
)

// UserIndexer mirrors user documents into a search engine.
type UserIndexer interface {
	IndexUser(ctx context.Context, user *entity.User) error
	DeleteUser(ctx context.Context, userID int64) error
}

// UserSearchIndex is a UserIndexer that can also answer queries.
type UserSearchIndex interface {
	UserIndexer
	SearchUserIDs(ctx context.Context, query string, excludeID int64, limit int) ([]int64, error)
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
	index  string
}

func NewMeiliSearchService(client meilisearch.ServiceManager, index string) UserSearchIndex {
	s := &meiliSearchService{client: client, index: index}
	s.initIndex()
	return s
}

func (s *meiliSearchService) initIndex() {
	searchable := []string{"username", "first_name", "last_name"}
	if _, err := s.client.Index(s.index).UpdateSearchableAttributes(&searchable); err != nil {
		logger.Warn("failed to update searchable attributes", "index", s.index, "error", err)
	}

	filterable := []interface{}{"user_id"}
	if _, err := s.client.Index(s.index).UpdateFilterableAttributes(&filterable); err != nil {
		logger.Warn("failed to update filterable attributes", "index", s.index, "error", err)
	}

	sortable := []string{"first_name", "last_name", "created_at"}
	if _, err := s.client.Index(s.index).UpdateSortableAttributes(&sortable); err != nil {
		logger.Warn("failed to update sortable attributes", "index", s.index, "error", err)
	}
}

type meiliUserDoc struct {
	UserID         int64  `json:"user_id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
	CreatedAt      int64  `json:"created_at"`
}

func newUserDoc(user *entity.User) meiliUserDoc {
	doc := meiliUserDoc{
		UserID:    user.UserID,
		Username:  user.Username,
		FirstName: sanitize.Text(user.FirstName),
		LastName:  sanitize.Text(user.LastName),
		CreatedAt: user.CreatedAt.Unix(),
	}
	if user.ProfilePicture != nil {
		doc.ProfilePicture = *user.ProfilePicture
	}
	return doc
}

func (s *meiliSearchService) IndexUser(_ context.Context, user *entity.User) error {
	task, err := s.client.Index(s.index).AddDocuments([]meiliUserDoc{newUserDoc(user)}, strPtr("user_id"))
	if err != nil {
		return err
	}
	logger.Debug("indexed user", "user_id", user.UserID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteUser(_ context.Context, userID int64) error {
	_, err := s.client.Index(s.index).DeleteDocument(strconv.FormatInt(userID, 10))
	return err
}

type meiliUserHit struct {
	UserID int64 `json:"user_id"`
}

// SearchUserIDs returns the ids of matching users, most relevant first.
func (s *meiliSearchService) SearchUserIDs(ctx context.Context, query string, excludeID int64, limit int) ([]int64, error) {
	res, err := s.client.Index(s.index).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		Filter:               fmt.Sprintf("user_id != %d", excludeID),
		AttributesToRetrieve: []string{"user_id"},
	})
	if err != nil {
		return nil, err
	}

	var hits []meiliUserHit
	if err := res.Hits.DecodeInto(&hits); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}

	ids := make([]int64, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.UserID)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
