package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/gatherly/eventhub/internal/media"
	"github.com/gatherly/eventhub/internal/realtime"
	"github.com/gatherly/eventhub/internal/repository"
	"github.com/gatherly/eventhub/pkg/events"
	"github.com/gatherly/eventhub/pkg/logger"
)

// Broadcaster is the room fanout dependency. It is injected, never looked up
// from ambient state, and may be nil when no realtime channel is wired.
type Broadcaster interface {
	Publish(room, messageType string, payload any)
}

// Upload is an incoming image attachment.
type Upload struct {
	Filename string
	Content  io.Reader
}

type EventService interface {
	Create(ctx context.Context, ownerID int64, req *domain.CreateEventRequest, image *Upload) (*domain.Event, error)
	Update(ctx context.Context, actorID, id int64, req *domain.UpdateEventRequest, image *Upload) (*domain.Event, error)
	Delete(ctx context.Context, actorID, id int64) error
	Join(ctx context.Context, actorID, id int64) (*domain.Event, error)
	List(ctx context.Context, filter domain.ListEventsFilter) ([]domain.Event, error)
}

type eventService struct {
	eventRepo   repository.EventRepository
	userRepo    repository.UserRepository
	mediaStore  media.Store
	broadcaster Broadcaster
	eventBus    events.Publisher
}

func NewEventService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	mediaStore media.Store,
	broadcaster Broadcaster,
	eventBus events.Publisher,
) EventService {
	return &eventService{
		eventRepo:   eventRepo,
		userRepo:    userRepo,
		mediaStore:  mediaStore,
		broadcaster: broadcaster,
		eventBus:    eventBus,
	}
}

// Create uploads the image before persisting anything so a failed upload
// leaves no orphan record. The owner-list append after persistence is the
// accepted inconsistency window: on failure the event exists but is missing
// from the owner's list.
func (s *eventService) Create(ctx context.Context, ownerID int64, req *domain.CreateEventRequest, image *Upload) (*domain.Event, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, domain.NewValidationError("image", "is required")
	}

	obj, err := s.mediaStore.Upload(ctx, image.Filename, image.Content)
	if err != nil {
		return nil, fmt.Errorf("image upload failed: %w", err)
	}

	event, err := s.eventRepo.Create(ctx, ownerID, req, domain.Image{ID: obj.ID, URL: obj.URL})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := s.userRepo.AddEvent(ctx, ownerID, event.ID); err != nil {
		logger.WarnContext(ctx, "failed to append event to owner's list",
			"error", err, "event_id", event.ID, "owner_id", ownerID)
	}

	s.publishBus(ctx, events.EventCreated, events.EventCreatedPayload{
		EventID:   event.ID,
		OwnerID:   event.OwnerID,
		Name:      event.Name,
		DateTime:  event.DateTime,
		CreatedAt: event.CreatedAt,
	})

	return event, nil
}

func (s *eventService) Update(ctx context.Context, actorID, id int64, req *domain.UpdateEventRequest, image *Upload) (*domain.Event, error) {
	// Authorization runs against the current persisted state, re-fetched here.
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if !event.IsOwner(actorID) {
		return nil, domain.ErrNotOwner
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var newImage *domain.Image
	if image != nil {
		// Old object goes first so the store never holds two images for one event.
		if err := s.mediaStore.Delete(ctx, event.Image.ID); err != nil {
			return nil, fmt.Errorf("failed to delete old image: %w", err)
		}
		obj, err := s.mediaStore.Upload(ctx, image.Filename, image.Content)
		if err != nil {
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
		newImage = &domain.Image{ID: obj.ID, URL: obj.URL}
	}

	updated, err := s.eventRepo.Update(ctx, id, req, newImage)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrEventNotFound
	}

	s.publishRoom(ctx, updated, realtime.MessageEventUpdate)
	s.publishBus(ctx, events.EventUpdated, events.EventChangedPayload{
		EventID:   updated.ID,
		OwnerID:   updated.OwnerID,
		UpdatedAt: updated.UpdatedAt,
	})

	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, actorID, id int64) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return domain.ErrEventNotFound
	}
	if !event.IsOwner(actorID) {
		return domain.ErrNotOwner
	}

	if err := s.mediaStore.Delete(ctx, event.Image.ID); err != nil {
		return fmt.Errorf("failed to delete event image: %w", err)
	}

	if _, err := s.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if err := s.userRepo.RemoveEvent(ctx, event.OwnerID, event.ID); err != nil {
		logger.WarnContext(ctx, "failed to remove event from owner's list",
			"error", err, "event_id", event.ID, "owner_id", event.OwnerID)
	}

	s.publishBus(ctx, events.EventDeleted, events.EventChangedPayload{
		EventID: event.ID,
		OwnerID: event.OwnerID,
	})

	return nil
}

func (s *eventService) Join(ctx context.Context, actorID, id int64) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if event.IsAttending(actorID) {
		return nil, domain.ErrAlreadyAttending
	}
	if event.IsFull() {
		return nil, domain.ErrEventFull
	}

	updated, err := s.eventRepo.AddAttendee(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to join event: %w", err)
	}
	if updated == nil {
		// The guarded append refused: a concurrent request won the race.
		// Re-fetch to report the precise reason.
		current, err := s.eventRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get event: %w", err)
		}
		switch {
		case current == nil:
			return nil, domain.ErrEventNotFound
		case current.IsAttending(actorID):
			return nil, domain.ErrAlreadyAttending
		default:
			return nil, domain.ErrEventFull
		}
	}

	s.publishRoom(ctx, updated, realtime.MessageAttendeeUpdate)
	s.publishBus(ctx, events.AttendeeJoined, events.AttendeeJoinedPayload{
		EventID:       updated.ID,
		UserID:        actorID,
		AttendeeCount: updated.AttendeeCount(),
	})

	return updated, nil
}

func (s *eventService) List(ctx context.Context, filter domain.ListEventsFilter) ([]domain.Event, error) {
	return s.eventRepo.List(ctx, filter)
}

// publishRoom fans the committed event out to its room. Fanout is best-effort
// and never fails the originating mutation.
func (s *eventService) publishRoom(ctx context.Context, event *domain.Event, messageType string) {
	if s.broadcaster == nil {
		logger.WarnContext(ctx, "no fanout channel available", "event_id", event.ID, "type", messageType)
		return
	}
	s.broadcaster.Publish(strconv.FormatInt(event.ID, 10), messageType, event.ToDTO())
}

func (s *eventService) publishBus(ctx context.Context, subject string, payload any) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "failed to publish bus event", "error", err, "subject", subject)
	}
}
