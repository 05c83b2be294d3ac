package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryConference Category = "Conference"
	CategoryWorkshop   Category = "Workshop"
	CategorySocial     Category = "Social"
	CategoryWebinar    Category = "Webinar"
	CategoryOther      Category = "Other"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryConference, CategoryWorkshop, CategorySocial, CategoryWebinar, CategoryOther:
		return Category(s), true
	default:
		return "", false
	}
}

// Image references an object in the external media store.
type Image struct {
	ID  string `json:"public_id"`
	URL string `json:"url"`
}

type Event struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DateTime     time.Time `json:"date_time"`
	Category     Category  `json:"category"`
	OwnerID      int64     `json:"owner_id"`
	Attendees    []int64   `json:"attendees"`
	Image        Image     `json:"image"`
	Location     string    `json:"location"`
	MaxAttendees *int      `json:"max_attendees,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (e *Event) AttendeeCount() int {
	return len(e.Attendees)
}

func (e *Event) IsOwner(userID int64) bool {
	return e.OwnerID == userID
}

func (e *Event) IsAttending(userID int64) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

func (e *Event) IsFull() bool {
	return e.MaxAttendees != nil && len(e.Attendees) >= *e.MaxAttendees
}

// EventDTO is the wire shape; attendee_count is derived from attendees.
type EventDTO struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DateTime      time.Time `json:"date_time"`
	Category      Category  `json:"category"`
	OwnerID       int64     `json:"owner_id"`
	Attendees     []int64   `json:"attendees"`
	AttendeeCount int       `json:"attendee_count"`
	Image         Image     `json:"image"`
	Location      string    `json:"location"`
	MaxAttendees  *int      `json:"max_attendees,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (e *Event) ToDTO() *EventDTO {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []int64{}
	}
	return &EventDTO{
		ID:            e.ID,
		Name:          e.Name,
		Description:   e.Description,
		DateTime:      e.DateTime,
		Category:      e.Category,
		OwnerID:       e.OwnerID,
		Attendees:     attendees,
		AttendeeCount: len(attendees),
		Image:         e.Image,
		Location:      e.Location,
		MaxAttendees:  e.MaxAttendees,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

type CreateEventRequest struct {
	Name         string    `json:"name" validate:"required,max=100"`
	Description  string    `json:"description" validate:"max=500"`
	DateTime     time.Time `json:"date_time" validate:"required"`
	Category     Category  `json:"category" validate:"omitempty,oneof=Conference Workshop Social Webinar Other"`
	Location     string    `json:"location" validate:"max=200"`
	MaxAttendees *int      `json:"max_attendees" validate:"omitempty,min=1,max=10000"`
}

func (r *CreateEventRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	if r.Category == "" {
		r.Category = CategoryOther
	}
}

func (r *CreateEventRequest) Validate() error {
	if err := firstValidationError(validate.Struct(r)); err != nil {
		return err
	}
	if !r.DateTime.After(time.Now()) {
		return NewValidationError("date_time", "must be in the future")
	}
	return nil
}

// UpdateEventRequest patches only the supplied fields; the image is handled
// separately by the mutation protocol.
type UpdateEventRequest struct {
	Name         *string    `json:"name" validate:"omitempty,max=100"`
	Description  *string    `json:"description" validate:"omitempty,max=500"`
	DateTime     *time.Time `json:"date_time"`
	Category     *Category  `json:"category" validate:"omitempty,oneof=Conference Workshop Social Webinar Other"`
	Location     *string    `json:"location" validate:"omitempty,max=200"`
	MaxAttendees *int       `json:"max_attendees" validate:"omitempty,min=1,max=10000"`
}

func (r *UpdateEventRequest) Validate() error {
	if err := firstValidationError(validate.Struct(r)); err != nil {
		return err
	}
	if r.DateTime != nil && !r.DateTime.After(time.Now()) {
		return NewValidationError("date_time", "must be in the future")
	}
	return nil
}

// ListEventsFilter narrows GET /events; zero value returns everything.
type ListEventsFilter struct {
	Category     *Category
	OnlyUpcoming bool
}
