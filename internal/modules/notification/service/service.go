package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/datetime"
	"github.com/redis/go-redis/v9"
)

const (
	EventFriendRequestReceived = "friend_request.received"
	EventFriendRequestAccepted = "friend_request.accepted"
	EventFriendRequestRejected = "friend_request.rejected"
	EventFriendshipRemoved     = "friendship.removed"
)

// Event is the payload published on a user's channel.
type Event struct {
	Type         string `json:"type"`
	FriendshipID int64  `json:"friendship_id"`
	ActorID      int64  `json:"actor_id"`
	OccurredAt   string `json:"occurred_at"`
}

func NewEvent(eventType string, friendshipID, actorID int64) Event {
	return Event{
		Type:         eventType,
		FriendshipID: friendshipID,
		ActorID:      actorID,
		OccurredAt:   datetime.Format(time.Now()),
	}
}

// Channel is the redis channel carrying events for userID.
func Channel(userID int64) string {
	return fmt.Sprintf("friend_events:%d", userID)
}

type Publisher interface {
	Publish(ctx context.Context, recipientID int64, event Event) error
}

type NotificationService interface {
	Publisher
	Enabled() bool
	Subscribe(ctx context.Context, userID int64) (*redis.PubSub, error)
}

type notificationService struct {
	redisClient *redis.Client
}

// NewNotificationService accepts a nil client; publishing is then a no-op
// and subscribing fails with 503.
func NewNotificationService(redisClient *redis.Client) NotificationService {
	return &notificationService{redisClient: redisClient}
}

func (s *notificationService) Enabled() bool {
	return s.redisClient != nil
}

func (s *notificationService) Publish(ctx context.Context, recipientID int64, event Event) error {
	if s.redisClient == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.redisClient.Publish(ctx, Channel(recipientID), payload).Err()
}

func (s *notificationService) Subscribe(ctx context.Context, userID int64) (*redis.PubSub, error) {
	if s.redisClient == nil {
		return nil, apperror.Unavailable("event stream is not available")
	}

	pubsub := s.redisClient.Subscribe(ctx, Channel(userID))
	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}
	return pubsub, nil
}
