package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/github-users/internal/apperror"
	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, login, node_id, avatar_url, gravatar_id, url, html_url,
	followers_url, following_url, gists_url, starred_url, subscriptions_url,
	organizations_url, repos_url, events_url, received_events_url, type,
	site_admin, position, fetched_at`

// upsertUser inserts or updates one user. GitHub's numeric ID is the primary
// key, so a renamed account updates its existing row.
//
// position is only written when listed is true; a details lookup must not
// pull a user into (or out of) the listing.
const upsertUser = `
	INSERT INTO github_users (id, login, node_id, avatar_url, gravatar_id, url, html_url,
		followers_url, following_url, gists_url, starred_url, subscriptions_url,
		organizations_url, repos_url, events_url, received_events_url, type,
		site_admin, position, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		login               = excluded.login,
		node_id             = excluded.node_id,
		avatar_url          = excluded.avatar_url,
		gravatar_id         = excluded.gravatar_id,
		url                 = excluded.url,
		html_url            = excluded.html_url,
		followers_url       = excluded.followers_url,
		following_url       = excluded.following_url,
		gists_url           = excluded.gists_url,
		starred_url         = excluded.starred_url,
		subscriptions_url   = excluded.subscriptions_url,
		organizations_url   = excluded.organizations_url,
		repos_url           = excluded.repos_url,
		events_url          = excluded.events_url,
		received_events_url = excluded.received_events_url,
		type                = excluded.type,
		site_admin          = excluded.site_admin,
		position            = CASE WHEN ? THEN excluded.position ELSE github_users.position END,
		fetched_at          = excluded.fetched_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, ex execer, u model.GitHubUser, position sql.NullInt64, now time.Time) error {
	_, err := ex.ExecContext(ctx, upsertUser,
		u.ID, u.Login, u.NodeID, u.AvatarURL, u.GravatarID, u.URL, u.HTMLURL,
		u.FollowersURL, u.FollowingURL, u.GistsURL, u.StarredURL, u.SubscriptionsURL,
		u.OrganizationsURL, u.ReposURL, u.EventsURL, u.ReceivedEventsURL, u.Type,
		u.SiteAdmin, position, now,
		position.Valid,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %s (id=%d): %w", u.Login, u.ID, err)
	}
	return nil
}

// ReplaceListing records users as the current listing in one transaction:
// clear every position, then upsert each user at its index.
func (db *DB) ReplaceListing(ctx context.Context, users []model.GitHubUser) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback after Commit is a no-op, so this is safe on every path.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE github_users SET position = NULL WHERE position IS NOT NULL`); err != nil {
		return fmt.Errorf("sqlite: clearing listing: %w", err)
	}

	now := time.Now().UTC()
	for i, u := range users {
		if err := upsert(ctx, tx, u, sql.NullInt64{Int64: int64(i), Valid: true}, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing listing: %w", err)
	}
	return nil
}

// Save upserts a single user, keeping its listing position (if any).
func (db *DB) Save(ctx context.Context, user model.GitHubUser) error {
	return upsert(ctx, db.conn, user, sql.NullInt64{}, time.Now().UTC())
}

// GetByLogin looks a user up by login, case-insensitively like GitHub does.
// Returns apperror.ErrNotFound if the user isn't cached.
func (db *DB) GetByLogin(ctx context.Context, login string) (*model.CachedUser, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+`
		 FROM github_users WHERE login = ? COLLATE NOCASE
		 ORDER BY fetched_at DESC LIMIT 1`,
		login,
	)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", login, err)
	}
	return u, nil
}

// ListListing returns the current listing in GitHub's order.
func (db *DB) ListListing(ctx context.Context, opts repository.ListOptions) ([]model.CachedUser, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+`
		 FROM github_users WHERE position IS NOT NULL
		 ORDER BY position ASC
		 LIMIT ? OFFSET ?`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.CachedUser{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads one row selected with userColumns. A NULL position reads
// as -1.
func scanUser(s scanner) (*model.CachedUser, error) {
	var (
		u        model.CachedUser
		position sql.NullInt64
	)
	err := s.Scan(
		&u.ID, &u.Login, &u.NodeID, &u.AvatarURL, &u.GravatarID, &u.URL, &u.HTMLURL,
		&u.FollowersURL, &u.FollowingURL, &u.GistsURL, &u.StarredURL, &u.SubscriptionsURL,
		&u.OrganizationsURL, &u.ReposURL, &u.EventsURL, &u.ReceivedEventsURL, &u.Type,
		&u.SiteAdmin, &position, &u.FetchedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Position = -1
	if position.Valid {
		u.Position = int(position.Int64)
	}
	return &u, nil
}
