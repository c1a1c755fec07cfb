// Package model defines the core domain types for the events and stats services.
package model

import "github.com/google/uuid"

// Page is an offset/limit window over a listing.
type Page struct {
	From int
	Size int
}

// DefaultPageSize is used when a listing does not specify a size.
const DefaultPageSize = 10

// User is a registered account that may initiate events or request participation.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// UserShort is the compact user representation embedded in event payloads.
type UserShort struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Category groups events by topic.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewUserRequest is the payload for registering a user.
type NewUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=250"`
	Email string `json:"email" validate:"required,email,max=254"`
}

// NewCategoryRequest is the payload for creating a category.
type NewCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

// ApiError is the JSON error envelope returned by both services.
type ApiError struct {
	Status    string   `json:"status"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Timestamp DateTime `json:"timestamp"`
}
