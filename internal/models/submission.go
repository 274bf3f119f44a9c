package models

import "time"

type SubmissionKind string

const (
	SubmissionContact SubmissionKind = "contact"
	SubmissionArtist  SubmissionKind = "artist"
)

type SubmissionStatus string

const (
	SubmissionNew      SubmissionStatus = "NEW"
	SubmissionReviewed SubmissionStatus = "REVIEWED"
	SubmissionArchived SubmissionStatus = "ARCHIVED"
)

// Submission is a contact message or an artist pitch sent from the public site.
type Submission struct {
	Base
	Kind       SubmissionKind   `json:"kind,omitempty"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone,omitempty"`
	Category   string           `json:"category,omitempty"`
	Subject    string           `json:"subject,omitempty"`
	Message    string           `json:"message,omitempty"`
	ArtistName string           `json:"artistName,omitempty"`
	Genre      string           `json:"genre,omitempty"`
	Links      StringList       `json:"links,omitempty"`
	Pitch      string           `json:"pitch,omitempty"`
	Status     SubmissionStatus `json:"status"`
	ReviewedBy *Author          `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time       `json:"reviewedAt,omitempty"`
}

// Body returns the free-text part regardless of the submission kind.
func (s Submission) Body() string {
	if s.Pitch != "" {
		return s.Pitch
	}
	return s.Message
}

type ContactInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Category string `json:"category,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Message  string `json:"message"`
}

type ArtistInput struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	ArtistName string   `json:"artistName"`
	Genre      string   `json:"genre,omitempty"`
	Links      []string `json:"links,omitempty"`
	Pitch      string   `json:"pitch"`
}
