package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the moderation status of a participation request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusConfirmed RequestStatus = "CONFIRMED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCanceled  RequestStatus = "CANCELED"
)

// ParticipationRequest is a user's bid to attend an event.
type ParticipationRequest struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	RequesterID uuid.UUID
	Created     time.Time
	Status      RequestStatus
}

// ParticipationRequestDto is the wire representation of a participation request.
type ParticipationRequestDto struct {
	ID        uuid.UUID     `json:"id"`
	Event     uuid.UUID     `json:"event"`
	Requester uuid.UUID     `json:"requester"`
	Created   DateTime      `json:"created"`
	Status    RequestStatus `json:"status"`
}

// Dto converts r to its wire representation.
func (r ParticipationRequest) Dto() ParticipationRequestDto {
	return ParticipationRequestDto{
		ID:        r.ID,
		Event:     r.EventID,
		Requester: r.RequesterID,
		Created:   NewDateTime(r.Created),
		Status:    r.Status,
	}
}

// RequestDtos converts a slice of requests, never returning nil.
func RequestDtos(reqs []ParticipationRequest) []ParticipationRequestDto {
	out := make([]ParticipationRequestDto, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Dto())
	}
	return out
}

// StatusUpdateRequest resolves a batch of requests for one event.
type StatusUpdateRequest struct {
	RequestIDs []uuid.UUID   `json:"requestIds" validate:"required,min=1"`
	Status     RequestStatus `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

// StatusUpdateResult partitions the requests touched by a bulk resolution.
type StatusUpdateResult struct {
	ConfirmedRequests []ParticipationRequestDto `json:"confirmedRequests"`
	RejectedRequests  []ParticipationRequestDto `json:"rejectedRequests"`
}
