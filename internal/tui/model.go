// Package tui is the terminal front end: a bubbletea program with a users
// list screen and a user details screen.
//
// The list screen renders whatever the users view-model publishes. States
// reach the program through waitForState, a tea.Cmd that blocks on the
// subscription and is re-issued after every state, so the program sees each
// state exactly once and in order.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/uistate"
	"github.com/sakif/github-users/internal/viewmodel"
)

// UsersModel is what the terminal UI needs from the users view-model.
type UsersModel interface {
	Users() *uistate.Subscription[[]model.GitHubUser]
	Activate() bool
	Fetch()
}

type screen int

const (
	screenHome screen = iota
	screenDetails
)

// Lines the list keeps for header, footer and card padding.
const chromeHeight = 12

type (
	stateMsg struct{ state viewmodel.UsersState }

	// subscriptionEndedMsg means the view-model was closed under us.
	subscriptionEndedMsg struct{}
)

// Model is the bubbletea model for the whole program.
type Model struct {
	users  UsersModel
	sub    *uistate.Subscription[[]model.GitHubUser]
	logger *slog.Logger

	screen   screen
	state    viewmodel.UsersState
	cursor   int
	offset   int // first visible row of the list
	selected *model.GitHubUser
	spinner  spinner.Model
	height   int
	quitting bool
}

// New subscribes to users right away, so the first state the program sees
// is the one current at startup.
func New(users UsersModel, logger *slog.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return Model{
		users:   users,
		sub:     users.Users(),
		logger:  logger,
		state:   viewmodel.Empty{},
		spinner: sp,
	}
}

// Init activates the list screen, which starts the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.activate,
		waitForState(m.sub),
		m.spinner.Tick,
	)
}

func (m Model) activate() tea.Msg {
	m.users.Activate()
	return nil
}

// waitForState delivers the next published state as a stateMsg.
func waitForState(sub *uistate.Subscription[[]model.GitHubUser]) tea.Cmd {
	return func() tea.Msg {
		s, err := sub.Next(context.Background())
		if err != nil {
			return subscriptionEndedMsg{}
		}
		return stateMsg{state: s}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.clampOffset()
		return m, nil

	case stateMsg:
		m.logger.Debug("state received", slog.String("state", msg.state.Kind().String()))
		m.state = msg.state
		m.cursor, m.offset = 0, 0
		return m, waitForState(m.sub)

	case subscriptionEndedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		m.sub.Close()
		return m, tea.Quit
	}

	if m.screen == screenDetails {
		switch msg.String() {
		case "esc", "backspace":
			m.screen = screenHome
			m.selected = nil
		}
		return m, nil
	}

	users := m.listed()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(users)-1 {
			m.cursor++
		}
	case "enter":
		if len(users) > 0 {
			u := users[m.cursor]
			m.selected = &u
			m.screen = screenDetails
		}
	case "r":
		m.users.Fetch()
	}
	m.clampOffset()
	return m, nil
}

// listed returns the users on screen, nil unless the state is Success.
func (m Model) listed() []model.GitHubUser {
	if s, ok := m.state.(viewmodel.Success); ok {
		return s.Data
	}
	return nil
}

// visibleRows is how many list rows fit; 0 means no size known yet.
func (m Model) visibleRows() int {
	if m.height == 0 {
		return 0
	}
	return max(m.height-chromeHeight, 1)
}

// clampOffset keeps the cursor inside the visible window.
func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if rows == 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m Model) View() string {
	if m.quitting {
		return "Bye!\n"
	}
	if m.screen == screenDetails && m.selected != nil {
		return m.detailsView()
	}
	return m.homeView()
}

func (m Model) homeView() string {
	header := HeaderStyle.Render(" GitHub Users ") + "\n"

	var subHeader, body string
	switch s := m.state.(type) {
	case viewmodel.Loading:
		subHeader = SubHeaderStyle.Render("Fetching from GitHub") + "\n"
		body = m.spinner.View() + " Loading users..."
	case viewmodel.Failure:
		subHeader = SubHeaderStyle.Render("Fetch failed") + "\n"
		body = ErrorTextStyle.Render("✘ " + s.Message)
	case viewmodel.Success:
		subHeader = SubHeaderStyle.Render(fmt.Sprintf("%d users", len(s.Data))) + "\n"
		body = m.listView(s.Data)
	default:
		subHeader = SubHeaderStyle.Render("Nothing here yet") + "\n"
		body = MutedStyle.Render("No users to show. Press r to load.")
	}

	footer := FooterStyle.Render("▸ ↑/↓: move • Enter: details • r: reload • q: exit")
	return fmt.Sprintf("%s%s%s\n%s", header, subHeader, CardStyle.Render(body), footer)
}

func (m Model) listView(users []model.GitHubUser) string {
	end := len(users)
	if rows := m.visibleRows(); rows > 0 {
		end = min(m.offset+rows, len(users))
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		u := users[i]
		line := fmt.Sprintf("%-24s %s", u.Login, MutedStyle.Render(fmt.Sprintf("#%d", u.ID)))
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) detailsView() string {
	u := m.selected
	header := HeaderStyle.Render(" GitHub User Details ") + "\n"
	subHeader := SubHeaderStyle.Render(u.Login) + "\n"

	rows := []struct{ key, value string }{
		{"ID", fmt.Sprintf("%d", u.ID)},
		{"Login", u.Login},
		{"URL", u.URL},
		{"Avatar URL", u.AvatarURL},
		{"HTML URL", u.HTMLURL},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, InfoKeyStyle.Render(r.key)+" "+InfoValueStyle.Render(r.value))
	}

	footer := FooterStyle.Render("▸ Esc: back • q: exit")
	return fmt.Sprintf("%s%s%s\n%s", header, subHeader, CardStyle.Render(strings.Join(lines, "\n")), footer)
}
