package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/github-users/internal/connectivity"
	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/viewmodel"
)

type sourceFunc func(ctx context.Context) ([]model.GitHubUser, error)

func (f sourceFunc) FetchUsers(ctx context.Context) ([]model.GitHubUser, error) { return f(ctx) }

var testUsers = []model.GitHubUser{
	{ID: 1, Login: "mojombo", URL: "https://api.github.com/users/mojombo", AvatarURL: "https://avatars.githubusercontent.com/u/1?v=4", HTMLURL: "https://github.com/mojombo"},
	{ID: 2, Login: "defunkt", URL: "https://api.github.com/users/defunkt", HTMLURL: "https://github.com/defunkt"},
	{ID: 3, Login: "pjhyett", URL: "https://api.github.com/users/pjhyett", HTMLURL: "https://github.com/pjhyett"},
}

func newTestModel(t *testing.T, src viewmodel.UserSource) (Model, *viewmodel.UsersViewModel) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	vm := viewmodel.New(connectivity.Static(true), src, logger)
	t.Cleanup(vm.Close)
	return New(vm, logger), vm
}

// update feeds msg to m and returns the resulting Model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWaitForState_DeliversStatesInOrder(t *testing.T) {
	m, vm := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) {
		return testUsers, nil
	}))

	msg := waitForState(m.sub)()
	assert.Equal(t, stateMsg{state: viewmodel.Empty{}}, msg)

	vm.Fetch()
	assert.Equal(t, stateMsg{state: viewmodel.Loading{}}, waitForState(m.sub)())
	assert.Equal(t, stateMsg{state: viewmodel.Success{Data: testUsers}}, waitForState(m.sub)())
}

func TestWaitForState_EndsWhenViewModelCloses(t *testing.T) {
	m, vm := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) {
		return nil, nil
	}))
	_ = waitForState(m.sub)() // initial Empty

	vm.Close()
	assert.Equal(t, subscriptionEndedMsg{}, waitForState(m.sub)())
}

func TestView_EachState(t *testing.T) {
	m, _ := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) { return nil, nil }))

	assert.Contains(t, m.View(), "No users to show")

	m, cmd := update(t, m, stateMsg{state: viewmodel.Loading{}})
	assert.NotNil(t, cmd, "every state must re-arm waitForState")
	assert.Contains(t, m.View(), "Loading users")

	m, _ = update(t, m, stateMsg{state: viewmodel.Failure{Message: viewmodel.MsgNetworkUnavailable}})
	assert.Contains(t, m.View(), "Network is not available")

	m, _ = update(t, m, stateMsg{state: viewmodel.Success{Data: testUsers}})
	view := m.View()
	assert.Contains(t, view, "3 users")
	for _, u := range testUsers {
		assert.Contains(t, view, u.Login)
	}
}

func TestNavigation_OpenDetailsAndBack(t *testing.T) {
	m, _ := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) { return nil, nil }))
	m, _ = update(t, m, stateMsg{state: viewmodel.Success{Data: testUsers}})

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("j"))
	m, _ = update(t, m, key("down")) // already at the bottom
	assert.Equal(t, 2, m.cursor)
	m, _ = update(t, m, key("k"))
	assert.Equal(t, 1, m.cursor)

	m, _ = update(t, m, key("enter"))
	view := m.View()
	assert.Contains(t, view, "GitHub User Details")
	assert.Contains(t, view, "https://api.github.com/users/defunkt")
	assert.Contains(t, view, "https://github.com/defunkt")

	m, _ = update(t, m, key("esc"))
	assert.Equal(t, screenHome, m.screen)
	assert.Contains(t, m.View(), "3 users")
}

func TestNavigation_EnterWithoutUsersStaysHome(t *testing.T) {
	m, _ := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) { return nil, nil }))

	m, _ = update(t, m, key("enter"))
	assert.Equal(t, screenHome, m.screen)
}

func TestReloadKey_StartsFetch(t *testing.T) {
	release := make(chan struct{})
	m, vm := newTestModel(t, sourceFunc(func(ctx context.Context) ([]model.GitHubUser, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, nil
	}))
	defer close(release)

	_, _ = update(t, m, key("r"))
	assert.Equal(t, viewmodel.Loading{}, vm.Current())
}

func TestActivate_FetchesOnInit(t *testing.T) {
	m, vm := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) {
		return testUsers, nil
	}))

	assert.Nil(t, m.activate())
	require.Eventually(t, func() bool {
		_, ok := vm.Current().(viewmodel.Success)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) { return nil, nil }))

	m, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Bye!\n", m.View())
}

func TestListScrollsWithCursor(t *testing.T) {
	m, _ := newTestModel(t, sourceFunc(func(context.Context) ([]model.GitHubUser, error) { return nil, nil }))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: chromeHeight + 2})
	m, _ = update(t, m, stateMsg{state: viewmodel.Success{Data: testUsers}})

	assert.NotContains(t, m.View(), "pjhyett")

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("down"))
	view := m.View()
	assert.Contains(t, view, "pjhyett")
	assert.False(t, strings.Contains(view, "mojombo"), "first row should have scrolled away")
}
