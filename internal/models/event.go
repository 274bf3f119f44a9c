package models

import "time"

type EventStatus string

const (
	EventUpcoming EventStatus = "UPCOMING"
	EventPast     EventStatus = "PAST"
)

type Event struct {
	Base
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description,omitempty"`
	EventDate   time.Time   `json:"eventDate"`
	Venue       string      `json:"venue,omitempty"`
	Location    string      `json:"location,omitempty"`
	TicketURL   string      `json:"ticketUrl,omitempty"`
	TicketPrice string      `json:"ticketPrice,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	EventType   string      `json:"eventType,omitempty"`
	Status      EventStatus `json:"status"`
	Featured    bool        `json:"featured"`
}

type EventInput struct {
	Title       string      `json:"title"`
	Slug        string      `json:"slug,omitempty"`
	Description string      `json:"description,omitempty"`
	EventDate   time.Time   `json:"eventDate"`
	Venue       string      `json:"venue,omitempty"`
	Location    string      `json:"location,omitempty"`
	TicketURL   string      `json:"ticketUrl,omitempty"`
	TicketPrice string      `json:"ticketPrice,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	EventType   string      `json:"eventType,omitempty"`
	Status      EventStatus `json:"status"`
	Featured    bool        `json:"featured"`
}
