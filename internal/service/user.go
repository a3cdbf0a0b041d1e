// Package service contains the business logic layer of the application.
//
// THE LAYERS:
//
//	Consumers (HTTP handlers, terminal UI, view-model)
//	        ↓
//	Service (UserService)          → validates input, orchestrates
//	        ↓                 ↘
//	GitHub client (remote)      Repository (local cache)
//
// UserService is the "User Data Source" of the users view-model: FetchUsers
// goes to GitHub and records the result in the cache on the way back. The
// details screen uses GetUser, which tries the cache first.
//
// Like every service in this package, UserService knows nothing about HTTP:
// it takes and returns plain Go values and domain errors (apperror).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/sakif/github-users/internal/apperror"
	"github.com/sakif/github-users/internal/github"
	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/repository"
)

const (
	DefaultListLimit = 30
	MaxListLimit     = 100
	MaxLoginLength   = 39
)

// GitHub logins: alphanumerics and single hyphens, no leading or trailing
// hyphen.
var loginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9])*$`)

// UserClient is the part of the GitHub client the service needs.
// *github.Client implements it; tests pass a fake.
type UserClient interface {
	ListUsers(ctx context.Context, opts github.ListOptions) ([]model.GitHubUser, error)
	GetUser(ctx context.Context, login string) (*model.GitHubUser, error)
}

// UserService handles business logic for GitHub users.
type UserService struct {
	client UserClient
	cache  repository.UserRepository // nil disables caching
	logger *slog.Logger
}

// NewUserService creates a UserService. cache may be nil, e.g. for one-shot
// CLI runs that shouldn't touch the database.
func NewUserService(client UserClient, cache repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// FetchUsers retrieves the first page of GitHub users.
//
// A failing cache write is logged and ignored: the caller asked for users,
// and it has them.
func (s *UserService) FetchUsers(ctx context.Context) ([]model.GitHubUser, error) {
	users, err := s.client.ListUsers(ctx, github.ListOptions{})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.ReplaceListing(ctx, users); err != nil {
			s.logger.Warn("failed to cache user listing",
				slog.Int("users", len(users)),
				slog.String("error", err.Error()),
			)
		}
	}

	return users, nil
}

// GetUser returns a single user by login, from the cache when possible.
// Returns apperror.ErrValidation for a malformed login, apperror.ErrNotFound
// when GitHub has no such user, apperror.ErrUnavailable when GitHub is
// unreachable or rate limited and apperror.ErrForbidden when it refuses the
// account.
func (s *UserService) GetUser(ctx context.Context, login string) (*model.GitHubUser, error) {
	login = strings.TrimSpace(login)
	if err := validateLogin(login); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetByLogin(ctx, login)
		if err == nil {
			return &cached.GitHubUser, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("cache lookup failed",
				slog.String("login", login),
				slog.String("error", err.Error()),
			)
		}
	}

	user, err := s.client.GetUser(ctx, login)
	if err != nil {
		return nil, s.translate(login, err)
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, *user); err != nil {
			s.logger.Warn("failed to cache user",
				slog.String("login", login),
				slog.String("error", err.Error()),
			)
		}
	}

	return user, nil
}

// CachedUsers returns the last listing stored in the cache, with the same
// limit clamping as any other list endpoint.
func (s *UserService) CachedUsers(ctx context.Context, limit, offset int) ([]model.CachedUser, error) {
	if s.cache == nil {
		return []model.CachedUser{}, nil
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.cache.ListListing(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list cached users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing cached users: %w", err)
	}
	return users, nil
}

// translate turns transport-level failures of a user lookup into domain
// errors. Anything it does not recognise is returned unchanged.
func (s *UserService) translate(login string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.RateLimited():
			s.logger.Warn("github rate limit hit", slog.String("login", login))
			return apperror.Unavailable("GitHub API rate limit exceeded, try again later")
		case apiErr.StatusCode == http.StatusForbidden:
			return apperror.Forbidden(fmt.Sprintf("GitHub refused access to user %s", login))
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		s.logger.Warn("github unreachable",
			slog.String("login", login),
			slog.String("error", err.Error()),
		)
		return apperror.Unavailable("GitHub is unreachable")
	}
	return err
}

func validateLogin(login string) error {
	if login == "" {
		return apperror.ValidationFailed("login", "login is required")
	}
	if len(login) > MaxLoginLength {
		return apperror.ValidationFailed("login",
			fmt.Sprintf("login must be %d characters or less", MaxLoginLength))
	}
	if !loginPattern.MatchString(login) {
		return apperror.ValidationFailed("login",
			"login may only contain alphanumeric characters or single hyphens, and cannot begin or end with a hyphen")
	}
	return nil
}
