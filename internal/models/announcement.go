package models

import (
	"time"
)

type Announcement struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Content   string    `json:"content" dynamodbav:"content"`
	AuthorID  string    `json:"author_id" dynamodbav:"author_id"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`

	// Populated for responses, not persisted.
	Author *UserSummary `json:"author,omitempty" dynamodbav:"-"`
	Assets []Asset      `json:"assets,omitempty" dynamodbav:"-"`
}

func (a *Announcement) GetPK() string {
	return "ANNOUNCEMENT#" + a.ID
}

func (a *Announcement) GetSK() string {
	return "METADATA"
}

// AnnouncementSummary is the shape embedded in asset responses.
type AnnouncementSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (a *Announcement) Summary() AnnouncementSummary {
	return AnnouncementSummary{ID: a.ID, Title: a.Title}
}
