package api

import "time"

// Resource holds the fields shared by every persisted resource
type Resource struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HRef struct {
	Href string `json:"href"`
}

// Page represents pagination information for list responses
type Page struct {
	First      *HRef `json:"first,omitempty"`
	Next       *HRef `json:"next,omitempty"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int   `json:"total_count"`
}

// Error is the body returned for every failed API request
type Error struct {
	MessageCode string `json:"message_code,omitempty"`
	Message     string `json:"message"`
	Trace       string `json:"trace,omitempty"`
}
