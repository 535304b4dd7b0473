// ABOUTME: Integration tests for TUI app
// ABOUTME: Drives navigation, the route guard and async results against a fake backend

package tui

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/crediteval/internal/apitest"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/router"
	"github.com/markalston/crediteval/internal/session"
	"github.com/markalston/crediteval/internal/tui/authform"
	"github.com/markalston/crediteval/internal/tui/creditform"
)

// testApp wires an app to a fresh fake backend with an in-memory session
func testApp(t *testing.T) (*App, *apitest.Server) {
	t.Helper()
	backend := apitest.New(t)
	c := client.New(backend.APIURL())
	store := session.Open(c, session.NewMemoryStore())
	app := New(context.Background(), c, store, "")
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app, backend
}

// loggedIn logs the app's session in as a new account and resolves the user
func loggedIn(t *testing.T, app *App, backend *apitest.Server, username string, role client.Role) int {
	t.Helper()
	email := username + "@example.com"
	id := backend.AddUser(username, email, "secret1", string(role))
	creds := client.Credentials{Email: email, Password: "secret1", Role: role}
	if _, err := app.session.Login(context.Background(), creds); err != nil {
		t.Fatalf("login as %s: %v", username, err)
	}
	app.user = app.session.CurrentUser(context.Background())
	return id
}

// start resolves the saved session and lands on path
func start(app *App, path string) {
	app.Update(app.resolveUser(path)())
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestAppInitialState(t *testing.T) {
	app, _ := testApp(t)

	if app.screen != ScreenLoading || !app.loading {
		t.Errorf("expected loading screen before the user is resolved, got %d", app.screen)
	}
	if !strings.Contains(app.View(), "Loading") {
		t.Error("expected loading indicator")
	}
}

func TestStart_LoggedOutRedirectsToLogin(t *testing.T) {
	for _, path := range []string{router.Root, router.Dashboard, router.Evaluate, router.Admin, "/results/7", "/nowhere"} {
		app, backend := testApp(t)
		start(app, path)

		if app.screen != ScreenLogin || app.authForm == nil {
			t.Errorf("%s: expected login screen, got %d", path, app.screen)
		}
		if backend.TotalHits() != 0 {
			t.Errorf("%s: expected no requests while logged out, got %d", path, backend.TotalHits())
		}
	}
}

func TestStart_UserSentAwayFromAdmin(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "alice", client.RoleUser)

	start(app, router.Admin)

	if app.location.Route != router.RouteDashboard {
		t.Errorf("expected redirect to dashboard, got %s", app.location.Path())
	}
	if backend.Hits("GET /admin/users") != 0 {
		t.Error("expected no admin request for a user")
	}
}

func TestStart_LoggedInSkipsLogin(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "root", client.RoleAdmin)

	start(app, router.Login)

	if app.location.Route != router.RouteAdmin {
		t.Errorf("expected admin home, got %s", app.location.Path())
	}
}

func TestLogin_NavigatesHome(t *testing.T) {
	app, backend := testApp(t)
	backend.AddUser("alice", "alice@example.com", "secret1", "user")
	start(app, router.Login)

	_, cmd := app.Update(authform.LoginMsg{Email: "alice@example.com", Password: "secret1", Role: "user"})
	if cmd == nil {
		t.Fatal("expected login command")
	}
	app.Update(cmd())

	if app.location.Route != router.RouteDashboard {
		t.Errorf("expected dashboard after login, got %s", app.location.Path())
	}
	if app.user == nil || app.user.Username != "alice" {
		t.Errorf("expected user alice, got %+v", app.user)
	}
	if app.session.Session() == nil {
		t.Error("expected session to be stored")
	}
}

func TestLogin_FailureStaysOnForm(t *testing.T) {
	app, backend := testApp(t)
	backend.AddUser("alice", "alice@example.com", "secret1", "user")
	start(app, router.Login)

	_, cmd := app.Update(authform.LoginMsg{Email: "alice@example.com", Password: "wrong", Role: "user"})
	app.Update(cmd())

	if app.screen != ScreenLogin {
		t.Errorf("expected login screen, got %d", app.screen)
	}
	if app.authForm.Err() == "" {
		t.Error("expected an error under the form")
	}
	if app.session.Session() != nil {
		t.Error("expected no session after failed login")
	}
}

func TestLogin_InvalidFormNoRequest(t *testing.T) {
	app, backend := testApp(t)
	start(app, router.Login)

	_, cmd := app.Update(authform.LoginMsg{Email: "", Password: "x"})
	if cmd != nil {
		cmd()
	}

	if backend.Hits("POST /login") != 0 {
		t.Error("expected no request for an invalid form")
	}
	if app.authForm.Err() != "Email is required" {
		t.Errorf("expected validation message, got %q", app.authForm.Err())
	}
}

func TestRegisterKeySwitchesForms(t *testing.T) {
	app, _ := testApp(t)
	start(app, router.Login)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if app.screen != ScreenRegister {
		t.Fatalf("expected register screen, got %d", app.screen)
	}
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.screen != ScreenLogin {
		t.Errorf("expected login screen, got %d", app.screen)
	}
}

func TestLogout(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "alice", client.RoleUser)
	start(app, router.Evaluate)

	app.Update(creditform.CancelledMsg{})
	if app.screen != ScreenDashboard {
		t.Fatalf("expected dashboard after cancel, got %d", app.screen)
	}
	app.Update(app.loadHistory()())
	app.Update(keyRune('l'))

	if app.screen != ScreenLogin || app.user != nil || app.session.Session() != nil {
		t.Error("expected logged out on the login screen")
	}
}

func TestDashboard_LoadsHistory(t *testing.T) {
	app, backend := testApp(t)
	id := loggedIn(t, app, backend, "alice", client.RoleUser)
	backend.AddEvaluation(id, 100, 20, 5, 80, 50)
	start(app, router.Dashboard)

	if !app.loading {
		t.Fatal("expected loading while history is fetched")
	}
	app.Update(app.loadHistory()())

	if app.loading || app.dashboard == nil || app.dashboard.Len() != 1 {
		t.Fatal("expected dashboard with one evaluation")
	}
	if !strings.Contains(app.View(), "Welcome, alice") {
		t.Errorf("expected welcome line\nView:\n%s", app.View())
	}
}

func TestDashboard_OpenSelectedResult(t *testing.T) {
	app, backend := testApp(t)
	id := loggedIn(t, app, backend, "alice", client.RoleUser)
	inputID := backend.AddEvaluation(id, 100, 20, 5, 80, 50)
	start(app, router.Dashboard)
	app.Update(app.loadHistory()())

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if app.location.Route != router.RouteResult {
		t.Fatalf("expected result view, got %s", app.location.Path())
	}
	app.Update(app.loadResult(app.location.ID)())
	if app.resultView == nil || app.resultView.Result().InputID() != client.ID(strconv.Itoa(inputID)) {
		t.Error("expected the selected evaluation to load")
	}
}

func TestStaleResultDropped(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "alice", client.RoleUser)
	start(app, router.Dashboard)

	stale := app.loadHistory()
	app.navigate(router.Evaluate)
	if app.screen != ScreenEvaluate {
		t.Fatalf("expected evaluate screen, got %d", app.screen)
	}

	app.Update(stale())

	if app.screen != ScreenEvaluate || app.dashboard != nil {
		t.Error("expected history from the previous view to be dropped")
	}
}

func TestSubmitCredit_NavigatesOnce(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "alice", client.RoleUser)
	start(app, router.Evaluate)

	input := client.CreditInput{Income: 100, Debts: 20, EmploymentYears: 5, CreditHistoryScore: 80, RequestedAmount: 50}
	_, cmd := app.Update(creditform.SubmitMsg{Input: input})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if _, dup := app.Update(creditform.SubmitMsg{Input: input}); dup != nil {
		t.Error("expected duplicate submission to be ignored")
	}

	app.Update(cmd())

	if backend.Hits("POST /credit-inputs") != 1 {
		t.Errorf("expected one submission, got %d", backend.Hits("POST /credit-inputs"))
	}
	// first evaluation stored by the backend gets input id 100
	if app.location.Route != router.RouteResult || app.location.ID != "100" {
		t.Fatalf("expected result view, got %s", app.location.Path())
	}
	app.Update(app.loadResult(app.location.ID)())
	if app.resultView == nil || app.resultView.Result().CreditScore.Int() != 74 {
		t.Error("expected the submitted evaluation to be shown")
	}
}

func TestSubmitCredit_FailureReopensForm(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "alice", client.RoleUser)
	backend.Fail("POST /credit-inputs", http.StatusInternalServerError, "")
	start(app, router.Evaluate)

	_, cmd := app.Update(creditform.SubmitMsg{Input: client.CreditInput{Income: 1}})
	app.Update(cmd())

	if app.screen != ScreenEvaluate || app.submitting {
		t.Errorf("expected evaluate screen ready for retry, got %d", app.screen)
	}
	if !strings.Contains(app.View(), msgSubmitFailed) {
		t.Errorf("expected fallback message\nView:\n%s", app.View())
	}
}

func TestResult_NotFound(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "alice", client.RoleUser)
	start(app, "/results/999")

	app.Update(app.loadResult("999")())

	if app.err != "Result not found" {
		t.Errorf("expected backend message, got %q", app.err)
	}
	app.Update(keyRune('b'))
	if app.screen != ScreenDashboard {
		t.Errorf("expected back to dashboard, got %d", app.screen)
	}
}

func TestSessionExpiredReturnsToLogin(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "alice", client.RoleUser)
	backend.Fail("GET /credit-inputs", http.StatusUnauthorized, "")
	start(app, router.Dashboard)

	app.Update(app.loadHistory()())

	if app.screen != ScreenLogin {
		t.Fatalf("expected login screen, got %d", app.screen)
	}
	if app.session.Session() != nil {
		t.Error("expected session cleared")
	}
	if !strings.Contains(app.View(), msgSessionExpired) {
		t.Error("expected session expired notice")
	}
}

func TestAdmin_ToggleRole(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "root", client.RoleAdmin)
	alice := backend.AddUser("alice", "alice@example.com", "secret1", "user")
	start(app, router.Admin)
	app.Update(app.loadOverview()())
	if app.adminPanel == nil {
		t.Fatal("expected admin panel")
	}

	// own row is first
	if _, cmd := app.Update(keyRune('t')); cmd != nil {
		t.Error("expected no request for own row")
	}
	if !app.flashErr || !strings.Contains(app.flash, "cannot change your own role") {
		t.Errorf("expected own-role refusal, got %q", app.flash)
	}

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := app.Update(keyRune('t'))
	if cmd == nil {
		t.Fatal("expected role update command")
	}
	if _, dup := app.Update(keyRune('t')); dup != nil {
		t.Error("expected toggle blocked while a change is pending")
	}
	app.Update(cmd())

	if backend.UserRole(alice) != "admin" {
		t.Errorf("expected backend role admin, got %q", backend.UserRole(alice))
	}
	if app.adminPanel.Users()[1].Role != client.RoleAdmin {
		t.Error("expected row updated to admin")
	}
	if app.flashErr {
		t.Errorf("expected success notice, got %q", app.flash)
	}
}

func TestAdmin_ToggleFailureKeepsRow(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "root", client.RoleAdmin)
	alice := backend.AddUser("alice", "alice@example.com", "secret1", "user")
	backend.Fail("PATCH /admin/users/{id}", http.StatusInternalServerError, "")
	start(app, router.Admin)
	app.Update(app.loadOverview()())

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := app.Update(keyRune('t'))
	app.Update(cmd())

	if app.adminPanel.Users()[1].Role != client.RoleUser {
		t.Error("expected row unchanged after failure")
	}
	if backend.UserRole(alice) != "user" {
		t.Error("expected backend role unchanged")
	}
	if !app.flashErr || app.flash != msgRoleFailed {
		t.Errorf("expected failure notice, got %q", app.flash)
	}
}

func TestAdmin_LoadFailureRetry(t *testing.T) {
	app, backend := testApp(t)
	loggedIn(t, app, backend, "root", client.RoleAdmin)
	backend.Fail("GET /admin/stats", http.StatusInternalServerError, "")
	start(app, router.Admin)
	app.Update(app.loadOverview()())

	if app.err != msgAdminFailed {
		t.Fatalf("expected load failure, got %q", app.err)
	}

	backend.Recover("GET /admin/stats")
	app.Update(keyRune('r'))
	app.Update(app.loadOverview()())

	if app.err != "" || app.adminPanel == nil {
		t.Errorf("expected panel after retry, got err %q", app.err)
	}
}
