package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/session"
)

type loginField int

const (
	loginUsername loginField = iota
	loginPassword
)

// loggedInMsg is sent when a login attempt completes.
type loggedInMsg struct {
	user *domain.User
	err  error
}

// loginModel is the sign-in form shown while the session is anonymous.
type loginModel struct {
	guard      *session.Guard
	username   string
	password   string
	focus      loginField
	submitting bool
	notice     string // shown above the form, e.g. after expiry
	errMsg     string
}

func newLoginModel(g *session.Guard) loginModel {
	return loginModel{guard: g}
}

// reset clears the password and shows notice. The username is kept.
func (m loginModel) reset(notice string) loginModel {
	m.password = ""
	m.submitting = false
	m.errMsg = ""
	m.notice = notice
	m.focus = loginPassword
	if m.username == "" {
		m.focus = loginUsername
	}
	return m
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if strings.TrimSpace(m.username) == "" || m.password == "" {
		m.errMsg = "username and password are required"
		return m, nil
	}
	m.submitting = true
	m.errMsg = ""
	g, user, pass := m.guard, strings.TrimSpace(m.username), m.password
	return m, func() tea.Msg {
		u, err := g.Login(context.Background(), user, pass)
		return loggedInMsg{user: u, err: err}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedInMsg:
		m.submitting = false
		switch {
		case msg.err == nil:
			m.password = ""
			m.errMsg = ""
			m.notice = ""
		case errors.Is(msg.err, session.ErrInvalidCredentials):
			m.errMsg = "invalid username or password"
			m.password = ""
		default:
			m.errMsg = describeErr(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			if m.focus == loginUsername {
				m.focus = loginPassword
			} else {
				m.focus = loginUsername
			}
			return m, nil
		case "enter":
			if m.focus == loginUsername {
				m.focus = loginPassword
				return m, nil
			}
			return m.submit()
		}
		if m.focus == loginUsername {
			m.username = editInput(m.username, msg)
		} else {
			m.password = editInput(m.password, msg)
		}
	}
	return m, nil
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + sectionHeaderStyle.Render("Sign in") + "\n\n")
	if m.notice != "" {
		b.WriteString("  " + accentStyle.Render(m.notice) + "\n\n")
	}
	b.WriteString(renderInput("username", m.username, "your household username", m.focus == loginUsername) + "\n")
	b.WriteString(renderInput("password", strings.Repeat("•", len([]rune(m.password))), "", m.focus == loginPassword) + "\n\n")
	switch {
	case m.submitting:
		b.WriteString("  " + dimStyle.Render("signing in...") + "\n")
	case m.errMsg != "":
		b.WriteString("  " + errorStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}

func (m loginModel) helpBar() string {
	return helpBar("tab", "switch field", "enter", "sign in", "ctrl+c", "quit")
}
