// Package repository persists announcements, assets, and users in a single
// DynamoDB table. Handlers depend on the store interfaces so they can be
// exercised against in-memory fakes.
package repository

import (
	"context"
	"errors"

	"github.com/annboard/annboard/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already taken")
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	// List returns users newest first, filtered by a case-insensitive
	// substring match over name and email when search is non-empty.
	List(ctx context.Context, search string) ([]models.User, error)
}

type AnnouncementStore interface {
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
	// List returns announcements newest first, filtered over title and
	// content when search is non-empty.
	List(ctx context.Context, search string) ([]models.Announcement, error)
}

type AssetStore interface {
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, id string) error
	// List returns assets newest first, filtered over file name and file
	// type when search is non-empty, and restricted to assets linked to
	// announcementID when it is non-empty.
	List(ctx context.Context, search, announcementID string) ([]models.Asset, error)
}
