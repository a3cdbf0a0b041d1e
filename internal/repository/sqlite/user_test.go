package sqlite

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/sakif/github-users/internal/apperror"
	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/repository"
)

// newTestDB returns a fresh in-memory database, closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUser(id int64, login string) model.GitHubUser {
	return model.GitHubUser{
		ID:        id,
		Login:     login,
		AvatarURL: "https://avatars.githubusercontent.com/u/1?v=4",
		URL:       "https://api.github.com/users/" + login,
		HTMLURL:   "https://github.com/" + login,
		Type:      "User",
	}
}

func logins(users []model.CachedUser) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Login
	}
	return out
}

// =========================================================================
// LISTING TESTS
// =========================================================================

func TestReplaceListing_KeepsOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.ReplaceListing(ctx, []model.GitHubUser{
		testUser(3, "pjhyett"),
		testUser(1, "mojombo"),
		testUser(2, "defunkt"),
	})
	if err != nil {
		t.Fatalf("ReplaceListing() error = %v", err)
	}

	got, err := db.ListListing(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListListing() error = %v", err)
	}

	want := []string{"pjhyett", "mojombo", "defunkt"}
	if !slices.Equal(logins(got), want) {
		t.Errorf("ListListing() logins = %v, want %v", logins(got), want)
	}
	for i, u := range got {
		if u.Position != i {
			t.Errorf("user %s Position = %d, want %d", u.Login, u.Position, i)
		}
		if u.FetchedAt.IsZero() {
			t.Errorf("user %s FetchedAt not set", u.Login)
		}
	}
}

func TestReplaceListing_DropsOldListing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceListing(ctx, []model.GitHubUser{testUser(1, "mojombo"), testUser(2, "defunkt")}); err != nil {
		t.Fatalf("first ReplaceListing() error = %v", err)
	}
	if err := db.ReplaceListing(ctx, []model.GitHubUser{testUser(2, "defunkt")}); err != nil {
		t.Fatalf("second ReplaceListing() error = %v", err)
	}

	got, err := db.ListListing(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListListing() error = %v", err)
	}
	if !slices.Equal(logins(got), []string{"defunkt"}) {
		t.Errorf("ListListing() logins = %v, want [defunkt]", logins(got))
	}

	// mojombo is no longer listed but is still cached for the details screen.
	u, err := db.GetByLogin(ctx, "mojombo")
	if err != nil {
		t.Fatalf("GetByLogin() error = %v", err)
	}
	if u.Position != -1 {
		t.Errorf("Position = %d, want -1 for an unlisted user", u.Position)
	}
}

func TestReplaceListing_Empty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceListing(ctx, []model.GitHubUser{testUser(1, "mojombo")}); err != nil {
		t.Fatalf("ReplaceListing() error = %v", err)
	}
	if err := db.ReplaceListing(ctx, nil); err != nil {
		t.Fatalf("ReplaceListing(nil) error = %v", err)
	}

	got, err := db.ListListing(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListListing() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListListing() = %v, want empty non-nil slice", got)
	}
}

func TestListListing_Pagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	users := []model.GitHubUser{
		testUser(1, "a"), testUser(2, "b"), testUser(3, "c"), testUser(4, "d"),
	}
	if err := db.ReplaceListing(ctx, users); err != nil {
		t.Fatalf("ReplaceListing() error = %v", err)
	}

	got, err := db.ListListing(ctx, repository.ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListListing() error = %v", err)
	}
	if !slices.Equal(logins(got), []string{"b", "c"}) {
		t.Errorf("ListListing(limit=2, offset=1) = %v, want [b c]", logins(got))
	}
}

// =========================================================================
// SINGLE USER TESTS
// =========================================================================

func TestSave_RoundTripsAllFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := model.GitHubUser{
		ID:                1,
		Login:             "mojombo",
		NodeID:            "MDQ6VXNlcjE=",
		AvatarURL:         "https://avatars.githubusercontent.com/u/1?v=4",
		GravatarID:        "",
		URL:               "https://api.github.com/users/mojombo",
		HTMLURL:           "https://github.com/mojombo",
		FollowersURL:      "https://api.github.com/users/mojombo/followers",
		FollowingURL:      "https://api.github.com/users/mojombo/following{/other_user}",
		GistsURL:          "https://api.github.com/users/mojombo/gists{/gist_id}",
		StarredURL:        "https://api.github.com/users/mojombo/starred{/owner}{/repo}",
		SubscriptionsURL:  "https://api.github.com/users/mojombo/subscriptions",
		OrganizationsURL:  "https://api.github.com/users/mojombo/orgs",
		ReposURL:          "https://api.github.com/users/mojombo/repos",
		EventsURL:         "https://api.github.com/users/mojombo/events{/privacy}",
		ReceivedEventsURL: "https://api.github.com/users/mojombo/received_events",
		Type:              "User",
		SiteAdmin:         true,
	}
	if err := db.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := db.GetByLogin(ctx, "mojombo")
	if err != nil {
		t.Fatalf("GetByLogin() error = %v", err)
	}
	if got.GitHubUser != in {
		t.Errorf("GetByLogin() = %+v, want %+v", got.GitHubUser, in)
	}
	if got.Position != -1 {
		t.Errorf("Position = %d, want -1 (Save must not list a user)", got.Position)
	}
}

func TestSave_KeepsListingPosition(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceListing(ctx, []model.GitHubUser{testUser(1, "mojombo"), testUser(2, "defunkt")}); err != nil {
		t.Fatalf("ReplaceListing() error = %v", err)
	}

	renamed := testUser(2, "defunkt-renamed")
	if err := db.Save(ctx, renamed); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := db.ListListing(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListListing() error = %v", err)
	}
	if !slices.Equal(logins(got), []string{"mojombo", "defunkt-renamed"}) {
		t.Errorf("ListListing() = %v, want [mojombo defunkt-renamed]", logins(got))
	}
}

func TestGetByLogin_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	if err := db.Save(context.Background(), testUser(1, "MoJombo")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := db.GetByLogin(context.Background(), "mojombo")
	if err != nil {
		t.Fatalf("GetByLogin() error = %v", err)
	}
	if got.ID != 1 {
		t.Errorf("ID = %d, want 1", got.ID)
	}
}

func TestGetByLogin_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByLogin(context.Background(), "nobody")
	if err == nil {
		t.Fatal("GetByLogin() should have returned an error for an uncached login")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByLogin() error = %v, want ErrNotFound", err)
	}
}
