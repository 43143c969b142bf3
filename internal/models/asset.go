package models

import (
	"time"
)

type Asset struct {
	ID              string    `json:"id" dynamodbav:"id"`
	FileName        string    `json:"file_name" dynamodbav:"file_name"`
	FilePath        string    `json:"file_path" dynamodbav:"file_path"`
	FileType        string    `json:"file_type" dynamodbav:"file_type"`
	AnnouncementIDs []string  `json:"-" dynamodbav:"announcement_ids,omitempty"`
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" dynamodbav:"updated_at"`

	// Populated for responses, not persisted.
	Announcements []AnnouncementSummary `json:"announcements,omitempty" dynamodbav:"-"`
}

func (a *Asset) GetPK() string {
	return "ASSET#" + a.ID
}

func (a *Asset) GetSK() string {
	return "METADATA"
}

func (a *Asset) LinkedTo(announcementID string) bool {
	for _, id := range a.AnnouncementIDs {
		if id == announcementID {
			return true
		}
	}
	return false
}
