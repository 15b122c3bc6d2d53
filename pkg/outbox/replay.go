package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"notisub/pkg/mq"
)

// ReplayService re-publishes parked outbox events on demand.
type ReplayService struct {
	repo      *Repository
	publisher *mq.Publisher
}

func NewReplayService(repo *Repository, publisher *mq.Publisher) *ReplayService {
	return &ReplayService{
		repo:      repo,
		publisher: publisher,
	}
}

// ReplayEvent publishes the stored payload again and resets the event to
// pending bookkeeping state.
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}

	var payload interface{}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := s.publisher.PublishWithContext(ctx, event.RoutingKey, payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := s.repo.MarkAsSent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}

	return nil
}
