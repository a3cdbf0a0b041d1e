// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// GitHubUser is one entry of GitHub's public user listing (GET /users) or the
// summary part of a single user lookup (GET /users/{login}).
//
// The `json:"..."` tags use GitHub's snake_case field names so the API response
// decodes straight into this struct:
//
//	{"login":"mojombo","id":1,"avatar_url":"https://...","site_admin":false,...}
//
// The `db:"..."` tags name the matching columns of the local users cache.
//
// IMMUTABILITY:
// A GitHubUser is a read-only value once decoded. Slices of GitHubUser are
// handed to every observer of the users state, so nobody mutates them in place.
type GitHubUser struct {
	ID                int64  `json:"id"                  db:"id"`      // GitHub's numeric user ID: stable, never changes
	Login             string `json:"login"               db:"login"`   // GitHub username, e.g. "mojombo"
	NodeID            string `json:"node_id"             db:"node_id"` // GraphQL global ID
	AvatarURL         string `json:"avatar_url"          db:"avatar_url"`
	GravatarID        string `json:"gravatar_id"         db:"gravatar_id"`
	URL               string `json:"url"                 db:"url"` // API self-link
	HTMLURL           string `json:"html_url"            db:"html_url"`
	FollowersURL      string `json:"followers_url"       db:"followers_url"`
	FollowingURL      string `json:"following_url"       db:"following_url"`
	GistsURL          string `json:"gists_url"           db:"gists_url"`
	StarredURL        string `json:"starred_url"         db:"starred_url"`
	SubscriptionsURL  string `json:"subscriptions_url"   db:"subscriptions_url"`
	OrganizationsURL  string `json:"organizations_url"   db:"organizations_url"`
	ReposURL          string `json:"repos_url"           db:"repos_url"`
	EventsURL         string `json:"events_url"          db:"events_url"`
	ReceivedEventsURL string `json:"received_events_url" db:"received_events_url"`
	Type              string `json:"type"                db:"type"` // "User", "Organization" or "Bot"
	SiteAdmin         bool   `json:"site_admin"          db:"site_admin"`
}

// CachedUser is a GitHubUser as stored in the local cache, plus the time it was
// last written. Position keeps the order GitHub returned the listing in.
type CachedUser struct {
	GitHubUser
	Position  int       `json:"-"         db:"position"`
	FetchedAt time.Time `json:"fetchedAt" db:"fetched_at"`
}
