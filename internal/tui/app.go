// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Applies the route guard on every navigation and routes input to the active view

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/forms"
	"github.com/markalston/crediteval/internal/router"
	"github.com/markalston/crediteval/internal/session"
	"github.com/markalston/crediteval/internal/tui/admin"
	"github.com/markalston/crediteval/internal/tui/authform"
	"github.com/markalston/crediteval/internal/tui/creditform"
	"github.com/markalston/crediteval/internal/tui/dashboard"
	"github.com/markalston/crediteval/internal/tui/icons"
	"github.com/markalston/crediteval/internal/tui/result"
	"github.com/markalston/crediteval/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenRegister
	ScreenDashboard
	ScreenEvaluate
	ScreenResult
	ScreenAdmin
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	panelOverhead    = 6  // Border and horizontal padding of the content panel
)

// Fallback messages shown when the backend gives no usable error text
const (
	msgLoginFailed    = "Login failed. Please check your credentials."
	msgRegisterFailed = "Registration failed. Please try again."
	msgSubmitFailed   = "Submission failed"
	msgHistoryFailed  = "Failed to load history"
	msgResultFailed   = "Failed to load result"
	msgAdminFailed    = "Failed to load admin data"
	msgRoleFailed     = "Failed to update role"
	msgSessionExpired = "Your session has expired. Please log in again."
)

// Backend is the part of the API client the views use
type Backend interface {
	SubmitCreditInput(ctx context.Context, input client.CreditInput) (*client.CreditResult, error)
	CreditHistory(ctx context.Context) ([]client.CreditResult, error)
	CreditResult(ctx context.Context, inputID client.ID) (*client.CreditResult, error)
	AdminOverview(ctx context.Context) (*client.AdminOverview, error)
	UpdateUserRole(ctx context.Context, userID client.ID, role client.Role) (*client.User, error)
}

// Async results carry the mount they were started for and are dropped when
// the user has navigated away since.

type userResolvedMsg struct {
	path string
	user *client.User
}

type authDoneMsg struct {
	mount    int
	sess     *session.Session
	err      error
	fallback string
}

type historyMsg struct {
	mount   int
	history []client.CreditResult
	err     error
}

type resultMsg struct {
	mount  int
	result *client.CreditResult
	err    error
}

type overviewMsg struct {
	mount    int
	overview *client.AdminOverview
	err      error
}

type submittedMsg struct {
	mount  int
	result *client.CreditResult
	err    error
}

type roleUpdatedMsg struct {
	mount int
	user  client.User
	role  client.Role
	resp  *client.User
	err   error
}

// App is the root model for the TUI
type App struct {
	ctx       context.Context
	api       Backend
	session   *session.Store
	startPath string
	keys      keyMap
	spinner   spinner.Model

	user     *client.User
	location router.Location
	screen   Screen
	width    int
	height   int

	// mount increments on every navigation; mountCtx is canceled when it does
	mount       int
	mountCtx    context.Context
	cancelMount context.CancelFunc

	loading    bool
	submitting bool
	err        string
	flash      string
	flashErr   bool

	// Child views, only the one for the current screen is set
	authForm   *authform.Form
	creditForm *creditform.Form
	dashboard  *dashboard.Dashboard
	resultView *result.View
	adminPanel *admin.Panel
}

// New creates the application. startPath is checked against the route guard
// once the saved session has been verified.
func New(ctx context.Context, api Backend, store *session.Store, startPath string) *App {
	if startPath == "" {
		startPath = router.Root
	}
	return &App{
		ctx:       ctx,
		api:       api,
		session:   store,
		startPath: startPath,
		keys:      defaultKeys(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary))),
		screen:    ScreenLoading,
		loading:   true,
		mountCtx:  ctx,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.resolveUser(a.startPath))
}

func (a *App) resolveUser(path string) tea.Cmd {
	ctx, store := a.ctx, a.session
	return func() tea.Msg {
		return userResolvedMsg{path: path, user: store.CurrentUser(ctx)}
	}
}

// guard returns the route guard's view of the current user
func (a *App) guard() *router.Session {
	if a.user == nil {
		return nil
	}
	return &router.Session{Role: a.user.Role}
}

func (a *App) role() client.Role {
	if a.user == nil {
		return client.RoleUser
	}
	return a.user.Role.OrDefault()
}

// navigate applies the route guard to path and mounts the resulting view
func (a *App) navigate(path string) tea.Cmd {
	loc := router.Resolve(path, a.guard())
	if a.cancelMount != nil {
		a.cancelMount()
	}
	a.mount++
	a.mountCtx, a.cancelMount = context.WithCancel(a.ctx)

	a.location = loc
	a.loading = false
	a.submitting = false
	a.err = ""
	a.flash = ""
	a.authForm, a.creditForm, a.dashboard, a.resultView, a.adminPanel = nil, nil, nil, nil, nil
	slog.Debug("navigate", "requested", path, "location", loc.Path(), "mount", a.mount)

	switch loc.Route {
	case router.RouteLogin:
		a.screen = ScreenLogin
		a.authForm = authform.NewLogin()
		return a.authForm.Init()
	case router.RouteRegister:
		a.screen = ScreenRegister
		a.authForm = authform.NewRegister()
		return a.authForm.Init()
	case router.RouteEvaluate:
		a.screen = ScreenEvaluate
		a.creditForm = creditform.New()
		a.creditForm.SetWidth(a.contentWidth())
		return a.creditForm.Init()
	case router.RouteDashboard:
		a.screen = ScreenDashboard
		return a.startLoading(a.loadHistory())
	case router.RouteResult:
		a.screen = ScreenResult
		return a.startLoading(a.loadResult(loc.ID))
	case router.RouteAdmin:
		a.screen = ScreenAdmin
		return a.startLoading(a.loadOverview())
	}
	return nil
}

func (a *App) startLoading(load tea.Cmd) tea.Cmd {
	a.loading = true
	return tea.Batch(a.spinner.Tick, load)
}

func (a *App) loadHistory() tea.Cmd {
	ctx, mount, api := a.mountCtx, a.mount, a.api
	return func() tea.Msg {
		history, err := api.CreditHistory(ctx)
		return historyMsg{mount: mount, history: history, err: err}
	}
}

func (a *App) loadResult(id client.ID) tea.Cmd {
	ctx, mount, api := a.mountCtx, a.mount, a.api
	return func() tea.Msg {
		r, err := api.CreditResult(ctx, id)
		return resultMsg{mount: mount, result: r, err: err}
	}
}

func (a *App) loadOverview() tea.Cmd {
	ctx, mount, api := a.mountCtx, a.mount, a.api
	return func() tea.Msg {
		overview, err := api.AdminOverview(ctx)
		return overviewMsg{mount: mount, overview: overview, err: err}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a, tea.Quit
		}
		return a, a.handleKey(msg)

	case userResolvedMsg:
		a.user = msg.user
		return a, a.navigate(msg.path)

	case authform.LoginMsg:
		return a, a.login(msg)

	case authform.RegisterMsg:
		return a, a.register(msg)

	case authDoneMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		return a, a.handleAuthDone(msg)

	case creditform.SubmitMsg:
		return a, a.submitCredit(msg.Input)

	case creditform.CancelledMsg:
		return a, a.navigate(router.Home(a.role()))

	case submittedMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		a.submitting = false
		if msg.err != nil {
			if cmd, expired := a.expireOn(msg.err); expired {
				return a, cmd
			}
			return a, a.creditForm.Fail(client.Message(msg.err, msgSubmitFailed))
		}
		slog.Info("evaluation submitted", "input_id", msg.result.InputID(), "score", msg.result.CreditScore.Int())
		return a, a.navigate(router.ResultPath(msg.result.InputID()))

	case historyMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			return a, a.loadFailed(msg.err, msgHistoryFailed)
		}
		a.dashboard = dashboard.New(a.user, msg.history, a.contentWidth(), a.contentHeight())
		return a, nil

	case resultMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			return a, a.loadFailed(msg.err, msgResultFailed)
		}
		a.resultView = result.New(msg.result, a.contentWidth())
		return a, nil

	case overviewMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			return a, a.loadFailed(msg.err, msgAdminFailed)
		}
		var self client.ID
		if a.user != nil {
			self = a.user.ID
		}
		a.adminPanel = admin.New(self, msg.overview, a.contentWidth(), a.contentHeight())
		return a, nil

	case roleUpdatedMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		a.handleRoleUpdated(msg)
		return a, nil
	}

	// Forward everything else to the active form (needed for huh internals)
	return a, a.updateForm(msg)
}

func (a *App) resize() {
	if a.dashboard != nil {
		a.dashboard.SetSize(a.contentWidth(), a.contentHeight())
	}
	if a.adminPanel != nil {
		a.adminPanel.SetSize(a.contentWidth(), a.contentHeight())
	}
	if a.resultView != nil {
		a.resultView.SetWidth(a.contentWidth())
	}
	if a.creditForm != nil {
		a.creditForm.SetWidth(a.contentWidth())
	}
	if a.authForm != nil {
		a.authForm.Update(tea.WindowSizeMsg{Width: a.contentWidth(), Height: a.contentHeight()})
	}
}

func (a *App) updateForm(msg tea.Msg) tea.Cmd {
	switch {
	case a.authForm != nil:
		_, cmd := a.authForm.Update(msg)
		return cmd
	case a.creditForm != nil:
		_, cmd := a.creditForm.Update(msg)
		return cmd
	}
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.loading {
		return nil
	}
	if a.err != "" {
		return a.handleErrorKey(msg)
	}

	switch a.screen {
	case ScreenLogin:
		if key.Matches(msg, a.keys.Register) {
			return a.navigate(router.Register)
		}
		return a.updateForm(msg)
	case ScreenRegister:
		if key.Matches(msg, a.keys.Login) {
			return a.navigate(router.Login)
		}
		return a.updateForm(msg)
	case ScreenEvaluate:
		return a.updateForm(msg)
	case ScreenDashboard:
		return a.updateDashboard(msg)
	case ScreenResult:
		return a.updateResult(msg)
	case ScreenAdmin:
		return a.updateAdmin(msg)
	}
	return nil
}

// handleErrorKey serves a view whose load failed
func (a *App) handleErrorKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Refresh):
		return a.navigate(a.location.Path())
	case key.Matches(msg, a.keys.Back):
		return a.navigate(router.Home(a.role()))
	case key.Matches(msg, a.keys.Logout):
		return a.logout()
	}
	return nil
}

func (a *App) updateDashboard(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.New):
		return a.navigate(router.Evaluate)
	case key.Matches(msg, a.keys.Refresh):
		return a.navigate(router.Dashboard)
	case key.Matches(msg, a.keys.Logout):
		return a.logout()
	case key.Matches(msg, a.keys.Open):
		if a.dashboard != nil {
			if id, ok := a.dashboard.Selected(); ok {
				return a.navigate(router.ResultPath(id))
			}
		}
		return nil
	}
	if a.dashboard != nil {
		return a.dashboard.Update(msg)
	}
	return nil
}

func (a *App) updateResult(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Back):
		return a.navigate(router.Home(a.role()))
	case key.Matches(msg, a.keys.New):
		return a.navigate(router.Evaluate)
	case key.Matches(msg, a.keys.Logout):
		return a.logout()
	}
	return nil
}

func (a *App) updateAdmin(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.New):
		return a.navigate(router.Evaluate)
	case key.Matches(msg, a.keys.Refresh):
		return a.navigate(router.Admin)
	case key.Matches(msg, a.keys.Logout):
		return a.logout()
	case key.Matches(msg, a.keys.Toggle):
		return a.toggleRole()
	}
	if a.adminPanel != nil {
		return a.adminPanel.Update(msg)
	}
	return nil
}

func (a *App) login(msg authform.LoginMsg) tea.Cmd {
	if a.submitting || a.authForm == nil {
		return nil
	}
	creds, err := forms.ValidateLogin(msg.Email, msg.Password, msg.Role)
	if err != nil {
		return a.authForm.Fail(client.Message(err, msgLoginFailed))
	}

	a.submitting = true
	ctx, mount, store := a.mountCtx, a.mount, a.session
	return func() tea.Msg {
		sess, err := store.Login(ctx, creds)
		return authDoneMsg{mount: mount, sess: sess, err: err, fallback: msgLoginFailed}
	}
}

func (a *App) register(msg authform.RegisterMsg) tea.Cmd {
	if a.submitting || a.authForm == nil {
		return nil
	}
	a.submitting = true
	ctx, mount, store := a.mountCtx, a.mount, a.session
	return func() tea.Msg {
		sess, err := store.Register(ctx, msg.Registration)
		return authDoneMsg{mount: mount, sess: sess, err: err, fallback: msgRegisterFailed}
	}
}

func (a *App) handleAuthDone(msg authDoneMsg) tea.Cmd {
	a.submitting = false
	if msg.sess == nil {
		if a.authForm == nil {
			return nil
		}
		return a.authForm.Fail(client.Message(msg.err, msg.fallback))
	}
	if msg.err != nil {
		slog.Warn("session not saved", "error", msg.err)
	}

	user := msg.sess.User
	if user == nil {
		user = &client.User{}
	}
	u := *user
	u.Role = msg.sess.Role
	a.user = &u
	return a.navigate(router.Home(msg.sess.Role))
}

func (a *App) logout() tea.Cmd {
	a.session.Logout()
	a.user = nil
	cmd := a.navigate(router.Login)
	a.flash, a.flashErr = "Logged out", false
	return cmd
}

func (a *App) submitCredit(input client.CreditInput) tea.Cmd {
	if a.submitting || a.creditForm == nil {
		slog.Debug("duplicate submission ignored")
		return nil
	}
	a.submitting = true
	ctx, mount, api := a.mountCtx, a.mount, a.api
	return func() tea.Msg {
		r, err := api.SubmitCreditInput(ctx, input)
		return submittedMsg{mount: mount, result: r, err: err}
	}
}

func (a *App) toggleRole() tea.Cmd {
	if a.submitting || a.adminPanel == nil {
		return nil
	}
	target, role, err := a.adminPanel.ToggleTarget()
	if err != nil {
		a.flash, a.flashErr = capitalize(err.Error()), true
		return nil
	}

	a.submitting = true
	a.flash, a.flashErr = fmt.Sprintf("Changing %s to %s...", target.Username, role), false
	ctx, mount, api := a.mountCtx, a.mount, a.api
	return func() tea.Msg {
		resp, err := api.UpdateUserRole(ctx, target.ID, role)
		return roleUpdatedMsg{mount: mount, user: target, role: role, resp: resp, err: err}
	}
}

// handleRoleUpdated applies the acknowledged role, preferring the one the
// backend returned. On failure the row is left as it was.
func (a *App) handleRoleUpdated(msg roleUpdatedMsg) {
	a.submitting = false
	if msg.err != nil {
		slog.Warn("role update failed", "user_id", msg.user.ID, "error", msg.err)
		a.flash, a.flashErr = client.Message(msg.err, msgRoleFailed), true
		return
	}

	role := msg.role
	if msg.resp != nil && msg.resp.Role.Valid() {
		role = msg.resp.Role
	}
	if a.adminPanel != nil {
		a.adminPanel.ApplyRole(msg.user.ID, role)
	}
	slog.Info("role updated", "user_id", msg.user.ID, "role", role)
	a.flash, a.flashErr = fmt.Sprintf("%s is now %s", msg.user.Username, role), false
}

// loadFailed shows a load error, or returns to login when the session was rejected
func (a *App) loadFailed(err error, fallback string) tea.Cmd {
	if cmd, expired := a.expireOn(err); expired {
		return cmd
	}
	slog.Warn("view load failed", "location", a.location.Path(), "error", err)
	a.err = client.Message(err, fallback)
	return nil
}

// expireOn logs out and returns to the login view when err is a 401
func (a *App) expireOn(err error) (tea.Cmd, bool) {
	var ae *client.AuthError
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
		return nil, false
	}
	slog.Info("session rejected by backend", "location", a.location.Path())
	a.session.Logout()
	a.user = nil
	cmd := a.navigate(router.Login)
	a.flash, a.flashErr = msgSessionExpired, true
	return cmd, true
}

// View implements tea.Model
func (a *App) View() string {
	return a.wrapWithFrame(a.renderContent())
}

func (a *App) renderContent() string {
	var body string
	switch {
	case a.loading:
		body = a.spinner.View() + " Loading..."
	case a.err != "":
		body = styles.StatusCritical.Render("Error: "+a.err) + "\n" +
			styles.Help.Render("Press r to retry or b to go back")
	default:
		body = a.viewScreen()
	}

	if a.flash != "" {
		style := styles.StatusOK
		if a.flashErr {
			style = styles.StatusCritical
		}
		body = style.Render(a.flash) + "\n\n" + body
	}
	return styles.ActivePanel.Width(a.frameWidth() - 2).Render(body)
}

func (a *App) viewScreen() string {
	switch a.screen {
	case ScreenLogin, ScreenRegister:
		if a.authForm != nil {
			return a.authForm.View()
		}
	case ScreenEvaluate:
		if a.creditForm != nil {
			return a.creditForm.View()
		}
	case ScreenDashboard:
		if a.dashboard != nil {
			return a.dashboard.View()
		}
	case ScreenResult:
		if a.resultView != nil {
			return a.resultView.View()
		}
	case ScreenAdmin:
		if a.adminPanel != nil {
			return a.adminPanel.View()
		}
	}
	return ""
}

// frameWidth is the width of header, footer and panel
func (a *App) frameWidth() int {
	// width - 1 keeps some terminals from wrapping the last column
	if a.width-1 < minTerminalWidth {
		return minTerminalWidth
	}
	return a.width - 1
}

// contentWidth is the width available inside the content panel
func (a *App) contentWidth() int {
	return a.frameWidth() - panelOverhead
}

// contentHeight calculates the height available for view content
func (a *App) contentHeight() int {
	// header, footer and panel border/padding take 8 lines
	return max(10, a.height-8)
}

// renderHeader creates the header bar with app branding and the account
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftPlain := fmt.Sprintf(" %s %s ", icons.App.String(), "CreditEval")
	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("CreditEval"))

	rightPlain, rightText := "", ""
	if a.user != nil {
		account := fmt.Sprintf("%s %s (%s)", icons.User.String(), a.user.Username, a.role())
		rightPlain = " " + account + " "
		rightText = " " + contextStyle.Render(account) + " "
	}

	fill := strings.Repeat("─", max(0, width-4-lipgloss.Width(leftPlain)-lipgloss.Width(rightPlain)))
	return borderStyle.Render("╭─") + leftText + borderStyle.Render(fill) + rightText + borderStyle.Render("─╮")
}

// renderFooter creates the footer with keyboard shortcuts for the current screen
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var styled, plain []string
	for _, b := range a.shortcuts() {
		h := b.Help()
		styled = append(styled, keyStyle.Render(h.Key)+" "+labelStyle.Render(h.Desc))
		plain = append(plain, h.Key+" "+h.Desc)
	}
	leftText := " " + strings.Join(styled, "  ") + " "
	leftPlain := " " + strings.Join(plain, "  ") + " "

	fill := strings.Repeat("─", max(0, width-4-lipgloss.Width(leftPlain)))
	return borderStyle.Render("╰─") + leftText + borderStyle.Render(fill+"─╯")
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder
	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Run starts the TUI at startPath and blocks until the user quits
func Run(ctx context.Context, c *client.Client, store *session.Store, startPath string) error {
	app := New(ctx, c, store, startPath)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
