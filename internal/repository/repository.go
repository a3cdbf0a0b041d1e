// Package repository defines the storage interfaces the service layer depends on.
// The sqlite sub-package is the only implementation; service tests use fakes.
package repository

import (
	"context"

	"github.com/sakif/github-users/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository caches GitHub users locally.
//
// The cache has two jobs: remember the last listing (in GitHub's order) so
// it can be shown again without a network round trip, and remember single
// users looked up for the details screen.
type UserRepository interface {
	// ReplaceListing records users as the current listing, in order. Users
	// from an older listing stay cached but are no longer part of it.
	ReplaceListing(ctx context.Context, users []model.GitHubUser) error
	// Save upserts a single user without touching the listing order.
	Save(ctx context.Context, user model.GitHubUser) error
	GetByLogin(ctx context.Context, login string) (*model.CachedUser, error)
	// ListListing returns the current listing in order.
	ListListing(ctx context.Context, opts ListOptions) ([]model.CachedUser, error)
}
