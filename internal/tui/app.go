package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/homedash/internal/browser"
	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/notify"
	"github.com/naveenspark/homedash/pkg/session"
	"github.com/naveenspark/homedash/pkg/store"
)

type view int

const (
	viewLoading view = iota
	viewLogin
	viewHome
	viewTasks
	viewShopping
	viewRecipes
	viewAdmin
)

// sessionCheckedMsg carries the startup session probe.
type sessionCheckedMsg struct {
	status session.Status
}

// sessionExpiredMsg is sent when any guarded call came back unauthorized.
type sessionExpiredMsg struct{}

type loggedOutMsg struct {
	err error
}

type subscribedMsg struct {
	outcome notify.Outcome
}

// Deps are the collaborators the dashboard calls. Nil members disable the
// views that need them.
type Deps struct {
	Guard    *session.Guard
	Tasks    *store.TaskStore
	Users    *store.UserStore
	Shopping *store.ShoppingStore
	Recipes  *store.RecipeStore
	Notify   *notify.Subscriber
	WebURL   string
}

// App is the root Bubbletea model.
type App struct {
	deps     Deps
	version  string
	expired  chan struct{}
	session  domain.SessionState
	user     *domain.User
	view     view
	login    loginModel
	home     tasksModel
	tasks    tasksModel
	shopping shoppingModel
	recipes  recipesModel
	admin    adminModel

	helpOpen   bool
	helpCursor int
	status     string
	update     string
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates the dashboard. It subscribes to session expiry on d.Guard.
func NewApp(d Deps, version string) App {
	a := App{
		deps:     d,
		version:  version,
		session:  domain.SessionChecking,
		view:     viewLoading,
		login:    newLoginModel(d.Guard),
		home:     newTasksModel(d.Tasks, d.Users, scopeMine),
		tasks:    newTasksModel(d.Tasks, d.Users, scopeAll),
		shopping: newShoppingModel(d.Shopping),
		recipes:  newRecipesModel(d.Recipes, d.Shopping),
		admin:    newAdminModel(d.Shopping),
	}
	if d.Guard != nil {
		ch := make(chan struct{}, 1)
		d.Guard.OnExpired(func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		})
		a.expired = ch
	}
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.checkSession(), a.waitExpired(), checkVersion(a.version))
}

func (a App) checkSession() tea.Cmd {
	g := a.deps.Guard
	if g == nil {
		return nil
	}
	return func() tea.Msg {
		return sessionCheckedMsg{status: g.CheckSession(context.Background())}
	}
}

func (a App) waitExpired() tea.Cmd {
	ch := a.expired
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return sessionExpiredMsg{}
	}
}

func (a App) logout() tea.Cmd {
	g := a.deps.Guard
	return func() tea.Msg {
		return loggedOutMsg{err: g.Logout(context.Background())}
	}
}

func (a App) subscribe() tea.Cmd {
	n, user := a.deps.Notify, a.user
	if n == nil || user == nil {
		return nil
	}
	return func() tea.Msg {
		return subscribedMsg{outcome: n.Subscribe(context.Background(), user.ID)}
	}
}

// signedIn moves to the home view for u and starts notification setup.
func (a App) signedIn(u *domain.User) (App, tea.Cmd) {
	a.session = domain.SessionAuthenticated
	a.user = u
	a.home.owner = u.ID
	a.tasks.owner = u.ID
	a.status = ""
	a = a.leaveAll()
	a.view = viewHome
	var load tea.Cmd
	a.home, load = a.home.reload()
	return a, tea.Batch(load, a.subscribe())
}

// signedOut shows the login view. In-flight view loads are discarded.
func (a App) signedOut(notice string) App {
	a.session = domain.SessionAnonymous
	a.user = nil
	a.helpOpen = false
	a = a.leaveAll()
	a.view = viewLogin
	a.login = a.login.reset(notice)
	return a
}

func (a App) leaveAll() App {
	a.home = a.home.leave()
	a.tasks = a.tasks.leave()
	a.shopping = a.shopping.leave()
	a.recipes = a.recipes.leave()
	a.admin = a.admin.leave()
	return a
}

// switchTo shows v and reloads it. The view being left drops its pending loads.
func (a App) switchTo(v view) (App, tea.Cmd) {
	if a.view == v {
		return a, nil
	}
	a = a.leaveAll()
	a.view = v
	a.status = ""
	var cmd tea.Cmd
	switch v {
	case viewHome:
		a.home, cmd = a.home.reload()
	case viewTasks:
		a.tasks, cmd = a.tasks.reload()
	case viewShopping:
		a.shopping, cmd = a.shopping.reload()
	case viewRecipes:
		a.recipes, cmd = a.recipes.reload()
	case viewAdmin:
		a.admin, cmd = a.admin.reload()
	}
	return a, cmd
}

func (a App) helpItems() []helpItem {
	if a.deps.WebURL == "" {
		return nil
	}
	return []helpItem{
		{label: "Web dashboard", desc: a.deps.WebURL, url: a.deps.WebURL},
		{label: "Shopping list", desc: "on your phone", url: strings.TrimRight(a.deps.WebURL, "/") + "/shopping"},
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + status(1) + help(1) = 5 lines
		body := msg.Height - 5
		a.home.height = body
		a.tasks.height = body
		a.shopping.height = body
		a.recipes.height = body
		a.admin.height = body
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case releaseMsg:
		a.update = msg.tag
		return a, nil

	case sessionCheckedMsg:
		if a.session != domain.SessionChecking {
			return a, nil
		}
		if msg.status.Authenticated && msg.status.User != nil {
			return a.signedIn(msg.status.User)
		}
		return a.signedOut(""), nil

	case loggedInMsg:
		a.login, _ = a.login.Update(msg)
		if msg.err != nil || msg.user == nil {
			return a, nil
		}
		return a.signedIn(msg.user)

	case sessionExpiredMsg:
		if a.session == domain.SessionAuthenticated {
			a = a.signedOut("Your session expired. Sign in again.")
		}
		return a, a.waitExpired()

	case loggedOutMsg:
		a = a.signedOut("")
		if msg.err != nil {
			a.login.notice = "Signed out on this device. The server could not be reached."
		}
		return a, nil

	case subscribedMsg:
		if msg.outcome == notify.Registered {
			a.status = "notifications enabled"
		}
		return a, nil

	case tasksLoadedMsg:
		var cmd tea.Cmd
		if msg.scope == scopeMine {
			a.home, cmd = a.home.Update(msg)
		} else {
			a.tasks, cmd = a.tasks.Update(msg)
		}
		return a, cmd

	case shoppingLoadedMsg, shoppingCopiedMsg:
		var cmd tea.Cmd
		a.shopping, cmd = a.shopping.Update(msg)
		return a, cmd

	case recipesLoadedMsg, recipeExpandedMsg:
		var cmd tea.Cmd
		a.recipes, cmd = a.recipes.Update(msg)
		return a, cmd

	case adminLoadedMsg:
		var cmd tea.Cmd
		a.admin, cmd = a.admin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.view {
	case viewLoading:
		if msg.String() == "q" {
			return a, tea.Quit
		}
		return a, nil
	case viewLogin:
		if msg.String() == "esc" {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		items := a.helpItems()
		switch msg.String() {
		case "h", "esc":
			a.helpOpen = false
		case "q":
			return a, tea.Quit
		case "j", "down":
			if a.helpCursor < len(items)-1 {
				a.helpCursor++
			}
		case "k", "up":
			if a.helpCursor > 0 {
				a.helpCursor--
			}
		case "enter":
			if a.helpCursor < len(items) && items[a.helpCursor].url != "" {
				if err := browser.Open(items[a.helpCursor].url); err != nil {
					a.status = "could not open browser: " + err.Error()
				}
			}
		}
		return a, nil
	}

	// Global keys (only when not editing)
	if !a.isEditing() {
		switch msg.String() {
		case "h":
			a.helpOpen = true
			a.helpCursor = 0
			return a, nil
		case "q":
			return a, tea.Quit
		case "L":
			return a, a.logout()
		case "1":
			return a.switchTo(viewHome)
		case "2":
			return a.switchTo(viewTasks)
		case "3":
			return a.switchTo(viewShopping)
		case "4":
			return a.switchTo(viewRecipes)
		case "5":
			return a.switchTo(viewAdmin)
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.Update(msg)
	case viewShopping:
		a.shopping, cmd = a.shopping.Update(msg)
	case viewRecipes:
		a.recipes, cmd = a.recipes.Update(msg)
	case viewAdmin:
		a.admin, cmd = a.admin.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewHome:
		return a.home.editing()
	case viewTasks:
		return a.tasks.editing()
	case viewShopping:
		return a.shopping.editing()
	case viewRecipes:
		return a.recipes.editing()
	case viewAdmin:
		return a.admin.editing()
	}
	return false
}

func centered(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

func (a App) View() string {
	header := centered(renderShimmerLogo(a.frame), a.width)
	var meta []string
	if a.user != nil {
		meta = append(meta, "signed in as "+a.user.Username)
	}
	if a.update != "" {
		meta = append(meta, a.update+" available")
	}
	header += "\n" + centered(metaStyle.Render(strings.Join(meta, " . ")), a.width)

	switch a.view {
	case viewLoading:
		return header + "\n\n" + centered(dimStyle.Render("checking session..."), a.width) + "\n"
	case viewLogin:
		return header + "\n" + a.login.View() + "\n" + a.login.helpBar()
	}

	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Home", viewHome},
		{"2", "Tasks", viewTasks},
		{"3", "Shopping", viewShopping},
		{"4", "Recipes", viewRecipes},
		{"5", "Admin", viewAdmin},
	}
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		if t.v == viewHome {
			if n := a.overdueCount(); n > 0 {
				label += " " + overdueStyle.Render(fmt.Sprintf("%d", n))
			}
		}
		w := lipgloss.Width(label)
		left := max(0, (colWidth-w)/2)
		right := max(0, colWidth-w-left)
		tabBar.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}

	var body, help string
	switch a.view {
	case viewHome:
		body, help = a.home.View(), a.home.helpBar()
	case viewTasks:
		body, help = a.tasks.View(), a.tasks.helpBar()
	case viewShopping:
		body, help = a.shopping.View(), a.shopping.helpBar()
	case viewRecipes:
		body, help = a.recipes.View(), a.recipes.helpBar()
	case viewAdmin:
		body, help = a.admin.View(), a.admin.helpBar()
	}
	if !a.isEditing() {
		help += "  " + helpEntry("1-5", "tabs") + "  " + helpEntry("L", "sign out") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	}

	if a.helpOpen {
		body = helpView(a.helpCursor, a.helpItems())
		help = helpBar("j/k", "nav", "enter", "open", "esc", "close")
	}

	// Chrome budget: header(2) + tabs(1) + status(1) + help(1) = 5 lines + body
	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	statusLine := ""
	if a.status != "" {
		statusLine = " " + dimStyle.Render(a.status)
	}
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, statusLine, help)
}

// overdueCount counts overdue tasks on the home list.
func (a App) overdueCount() int {
	today := a.home.currentDay()
	n := 0
	for _, t := range a.home.tasks {
		if !t.Done && t.Overdue(today) {
			n++
		}
	}
	return n
}
