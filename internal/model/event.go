package model

import (
	"time"

	"github.com/google/uuid"
)

// EventState is the publication state of an event.
type EventState string

const (
	EventStatePending   EventState = "PENDING"
	EventStatePublished EventState = "PUBLISHED"
	EventStateCanceled  EventState = "CANCELED"
)

// Valid reports whether s names a known state.
func (s EventState) Valid() bool {
	switch s {
	case EventStatePending, EventStatePublished, EventStateCanceled:
		return true
	}
	return false
}

// StateAction is a transition requested through an event patch.
type StateAction string

const (
	// Owner actions.
	StateActionSendToReview StateAction = "SEND_TO_REVIEW"
	StateActionCancelReview StateAction = "CANCEL_REVIEW"
	// Administrator actions.
	StateActionPublish StateAction = "PUBLISH_EVENT"
	StateActionReject  StateAction = "REJECT_EVENT"
)

// EventSort selects the ordering of the public listing.
type EventSort string

const (
	EventSortDate  EventSort = "EVENT_DATE"
	EventSortViews EventSort = "VIEWS"
)

// Location is the geographic point an event takes place at.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is a schedulable public activity with a capacity-bounded attendee list.
type Event struct {
	ID                uuid.UUID
	Annotation        string
	Description       string
	Title             string
	EventDate         time.Time
	CreatedOn         time.Time
	PublishedOn       *time.Time
	CategoryID        uuid.UUID
	InitiatorID       uuid.UUID
	Location          Location
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	State             EventState
}

// Unlimited reports whether the event accepts any number of participants.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// HasCapacity reports whether another confirmation fits under the limit.
func (e *Event) HasCapacity(confirmed int) bool {
	return e.Unlimited() || confirmed < e.ParticipantLimit
}

// AutoConfirm reports whether new participation requests skip moderation.
func (e *Event) AutoConfirm() bool {
	return !e.RequestModeration || e.Unlimited()
}

// NewEventRequest is the payload for creating an event.
type NewEventRequest struct {
	Annotation        string    `json:"annotation" validate:"required,min=20,max=2000"`
	Category          uuid.UUID `json:"category" validate:"required"`
	Description       string    `json:"description" validate:"required,min=20,max=7000"`
	EventDate         DateTime  `json:"eventDate"`
	Location          *Location `json:"location" validate:"required"`
	Paid              bool      `json:"paid"`
	ParticipantLimit  int       `json:"participantLimit" validate:"gte=0"`
	RequestModeration *bool     `json:"requestModeration"`
	Title             string    `json:"title" validate:"required,min=3,max=120"`
}

// UpdateEventRequest is a partial event update. Nil fields are left untouched.
type UpdateEventRequest struct {
	Annotation        *string      `json:"annotation" validate:"omitempty,min=20,max=2000"`
	Category          *uuid.UUID   `json:"category"`
	Description       *string      `json:"description" validate:"omitempty,min=20,max=7000"`
	EventDate         *DateTime    `json:"eventDate"`
	Location          *Location    `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participantLimit" validate:"omitempty,gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	StateAction       *StateAction `json:"stateAction"`
	Title             *string      `json:"title" validate:"omitempty,min=3,max=120"`
}

// EventFull is the detailed event representation.
type EventFull struct {
	ID                uuid.UUID  `json:"id"`
	Annotation        string     `json:"annotation"`
	Category          Category   `json:"category"`
	ConfirmedRequests int64      `json:"confirmedRequests"`
	CreatedOn         DateTime   `json:"createdOn"`
	Description       string     `json:"description"`
	EventDate         DateTime   `json:"eventDate"`
	Initiator         UserShort  `json:"initiator"`
	Location          Location   `json:"location"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participantLimit"`
	PublishedOn       *DateTime  `json:"publishedOn"`
	RequestModeration bool       `json:"requestModeration"`
	State             EventState `json:"state"`
	Title             string     `json:"title"`
	Views             int64      `json:"views"`
}

// EventShort is the compact event representation used by listings.
type EventShort struct {
	ID                uuid.UUID `json:"id"`
	Annotation        string    `json:"annotation"`
	Category          Category  `json:"category"`
	ConfirmedRequests int64     `json:"confirmedRequests"`
	EventDate         DateTime  `json:"eventDate"`
	Initiator         UserShort `json:"initiator"`
	Paid              bool      `json:"paid"`
	Title             string    `json:"title"`
	Views             int64     `json:"views"`
}

// Short drops the detail-only fields of f.
func (f EventFull) Short() EventShort {
	return EventShort{
		ID:                f.ID,
		Annotation:        f.Annotation,
		Category:          f.Category,
		ConfirmedRequests: f.ConfirmedRequests,
		EventDate:         f.EventDate,
		Initiator:         f.Initiator,
		Paid:              f.Paid,
		Title:             f.Title,
		Views:             f.Views,
	}
}

// PublicEventFilter narrows the public listing. Nil or empty fields mean "no constraint".
type PublicEventFilter struct {
	Text          string
	Categories    []uuid.UUID
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	Page          Page
}

// AdminEventFilter narrows the administrator listing. Nil or empty fields mean "no constraint".
type AdminEventFilter struct {
	Users      []uuid.UUID
	States     []EventState
	Categories []uuid.UUID
	RangeStart *time.Time
	RangeEnd   *time.Time
	Page       Page
}
